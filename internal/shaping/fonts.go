package shaping

import (
	"os"
	"strings"

	"codeberg.org/go-pdf/fpdf"
)

// Builtin faces shipped with every PDF viewer; the last-resort fallbacks.
const (
	BuiltinSans  = "Helvetica"
	BuiltinSerif = "Times"
	BuiltinMono  = "Courier"
)

// Face is a resolved font family/style pair ready for fpdf.SetFont.
type Face struct {
	Family string
	Style  string // "", "B", "I", "BI"
	UTF8   bool   // registered TTF rather than a builtin core face
}

type registered struct {
	family string
	style  string
	data   []byte
}

// Registry maps logical families to registered TTF faces. RTL text always
// resolves to the Arabic-capable face regardless of the requested family.
type Registry struct {
	fonts        []registered
	styles       map[string]map[string]bool
	arabicFamily string
}

func NewRegistry(arabicFamily string) *Registry {
	return &Registry{
		styles:       map[string]map[string]bool{},
		arabicFamily: arabicFamily,
	}
}

// AddUTF8 registers a TTF face under a logical family name.
func (g *Registry) AddUTF8(family, style string, data []byte) {
	key := strings.ToLower(family)
	g.fonts = append(g.fonts, registered{family: key, style: normStyle(style), data: data})
	if g.styles[key] == nil {
		g.styles[key] = map[string]bool{}
	}
	g.styles[key][normStyle(style)] = true
}

// AddUTF8File registers a TTF face from disk; a missing file is skipped so
// rendering degrades to the builtin faces instead of failing.
func (g *Registry) AddUTF8File(family, style, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	g.AddUTF8(family, style, data)
	return nil
}

// Install registers every face with the document. Must run before any
// Resolve result is used on that document.
func (g *Registry) Install(pdf *fpdf.Fpdf) {
	for _, f := range g.fonts {
		pdf.AddUTF8FontFromBytes(f.family, f.style, f.data)
	}
}

// Resolve picks the concrete face for a logical family and style flags:
// exact bold/italic variant first, the family's regular face next, then a
// builtin serif/sans/mono face.
func (g *Registry) Resolve(family string, bold, italic, rtl bool) Face {
	if rtl && g.arabicFamily != "" {
		if face, ok := g.resolveRegistered(g.arabicFamily, bold, italic); ok {
			return face
		}
	}
	if face, ok := g.resolveRegistered(family, bold, italic); ok {
		return face
	}
	return Face{Family: builtinFor(family), Style: styleString(bold, italic)}
}

// HasTrueBold reports whether the resolved family carries a real bold
// variant. Builtin core faces always do.
func (g *Registry) HasTrueBold(face Face) bool {
	if !face.UTF8 {
		return true
	}
	set := g.styles[strings.ToLower(face.Family)]
	return set["B"] || set["BI"]
}

func (g *Registry) resolveRegistered(family string, bold, italic bool) (Face, bool) {
	key := strings.ToLower(family)
	set := g.styles[key]
	if set == nil {
		return Face{}, false
	}
	want := styleString(bold, italic)
	if set[want] {
		return Face{Family: key, Style: want, UTF8: true}, true
	}
	if set[""] {
		return Face{Family: key, Style: "", UTF8: true}, true
	}
	return Face{}, false
}

func builtinFor(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "times") || strings.Contains(f, "serif") || strings.Contains(f, "georgia"):
		return BuiltinSerif
	case strings.Contains(f, "courier") || strings.Contains(f, "mono") || strings.Contains(f, "consolas"):
		return BuiltinMono
	}
	return BuiltinSans
}

func styleString(bold, italic bool) string {
	s := ""
	if bold {
		s += "B"
	}
	if italic {
		s += "I"
	}
	return s
}

func normStyle(style string) string {
	s := strings.ToUpper(strings.TrimSpace(style))
	bold := strings.Contains(s, "B")
	italic := strings.Contains(s, "I")
	return styleString(bold, italic)
}
