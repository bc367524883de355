// Package render turns a JSON label template plus canonical records into
// a finished PDF: slot-grid page walking, text fitting and per-slot
// clipping live here.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrNoLayout is the one hard failure the renderer surfaces: a template
// without slot geometry cannot be rendered meaningfully.
var ErrNoLayout = errors.New("template unsupported: no layout geometry")

// FieldPos is a field's placement inside one slot. Coordinates are
// millimeters from the page's top-left.
type FieldPos struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Align      string  `json:"align"` // left|center|right
	MaxWMM     float64 `json:"max_w_mm"`
	MarginMM   float64 `json:"margin_mm"`
	Visible    *bool   `json:"visible"`
	NoWrap     bool    `json:"nowrap"`
	GapAfterMM float64 `json:"gap_after_mm"`
}

// Style is a field's type styling.
type Style struct {
	Family       string  `json:"family"`
	Size         float64 `json:"size"`
	Bold         bool    `json:"bold"`
	Italic       bool    `json:"italic"`
	Underline    bool    `json:"underline"`
	Strike       bool    `json:"strike"`
	Color        string  `json:"color"` // #RRGGBB
	DecimalScale float64 `json:"decimal_scale"`
	MinSize      float64 `json:"min_size"`
	Leading      float64 `json:"leading"`
}

// Template is the JSON layout document: a per-page slot grid plus
// per-field styles.
type Template struct {
	PageSize      string                                    `json:"page_size"`
	Positions     map[string]map[string]map[string]FieldPos `json:"positions"`
	Styles        map[string]Style                          `json:"styles"`
	ActiveHeaders map[string]bool                           `json:"active_headers"`

	fitDecimalScale float64
	fitMinSizePt    float64
}

// Slot is one (row, side) cell of the per-page grid.
type Slot struct {
	Row    int
	Side   int
	Fields map[string]FieldPos
}

// Parse decodes and validates a template document.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if len(t.Slots()) == 0 {
		return nil, ErrNoLayout
	}
	return &t, nil
}

// Slots returns the grid cells ordered by row then side. Entries with
// unparseable keys or no fields are ignored.
func (t *Template) Slots() []Slot {
	var out []Slot
	for rowKey, sides := range t.Positions {
		row, err := strconv.Atoi(rowKey)
		if err != nil {
			continue
		}
		for sideKey, fields := range sides {
			side, err := strconv.Atoi(sideKey)
			if err != nil || (side != 0 && side != 1) {
				continue
			}
			if len(fields) == 0 {
				continue
			}
			out = append(out, Slot{Row: row, Side: side, Fields: fields})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Side < out[j].Side
	})
	return out
}

// TwoColumn reports whether any row defines both sides; that is what
// switches on per-slot horizontal clipping.
func (t *Template) TwoColumn() bool {
	for _, sides := range t.Positions {
		if len(sides["0"]) > 0 && len(sides["1"]) > 0 {
			return true
		}
	}
	return false
}

// pageSizes in millimeters, portrait.
var pageSizes = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// PageSizeName returns the fpdf size string, defaulting to A4.
func (t *Template) PageSizeName() string {
	if _, ok := pageSizes[t.PageSize]; ok {
		return t.PageSize
	}
	return "A4"
}

// PageDims returns the page width and height in millimeters.
func (t *Template) PageDims() (w, h float64) {
	dims := pageSizes[t.PageSizeName()]
	return dims[0], dims[1]
}

// Fit defaults used when neither the template style nor the caller set
// a value.
const (
	defaultDecimalScale = 0.6
	defaultMinSizePt    = 4
)

// SetFitDefaults overrides the fallback decimal scale and minimum font
// size StyleFor applies to styles that leave them unset.
func (t *Template) SetFitDefaults(decimalScale, minSizePt float64) {
	t.fitDecimalScale = decimalScale
	t.fitMinSizePt = minSizePt
}

// StyleFor returns the field's style with rendering defaults applied.
func (t *Template) StyleFor(field string) Style {
	s := t.Styles[field]
	if s.Family == "" {
		s.Family = "Helvetica"
	}
	if s.Size <= 0 {
		s.Size = 10
	}
	if s.DecimalScale <= 0 {
		s.DecimalScale = t.fitDecimalScale
	}
	if s.DecimalScale <= 0 {
		s.DecimalScale = defaultDecimalScale
	}
	if s.MinSize <= 0 {
		s.MinSize = t.fitMinSizePt
	}
	if s.MinSize <= 0 {
		s.MinSize = defaultMinSizePt
	}
	if s.Leading <= 0 {
		s.Leading = 1.15
	}
	return s
}

// FieldActive applies the active_headers override and the per-position
// visible flag.
func (t *Template) FieldActive(field string, pos FieldPos) bool {
	if active, ok := t.ActiveHeaders[field]; ok && !active {
		return false
	}
	if pos.Visible != nil && !*pos.Visible {
		return false
	}
	return true
}

// ParseColor decodes "#RRGGBB" to its components; anything else is black.
func ParseColor(c string) (r, g, b int) {
	if len(c) != 7 || c[0] != '#' {
		return 0, 0, 0
	}
	rv, err1 := strconv.ParseUint(c[1:3], 16, 8)
	gv, err2 := strconv.ParseUint(c[3:5], 16, 8)
	bv, err3 := strconv.ParseUint(c[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0
	}
	return int(rv), int(gv), int(bv)
}
