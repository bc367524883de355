// Package shaping prepares strings for measurement and drawing: null
// coercion, control-character stripping, Arabic contextual shaping and
// bidirectional reordering. Shaping failures fall back to the sanitized
// input; text is never dropped.
package shaping

import (
	"strings"

	"github.com/abdullahdiaa/garabic"
	"golang.org/x/text/unicode/bidi"

	"labelmill/internal/util"
)

// Textual null markers spreadsheets and pandas-style exports leave behind.
var nullMarkers = map[string]bool{
	"nan": true, "none": true, "null": true, "na": true, "n/a": true, "-": true,
}

// Sanitize coerces null markers to empty, strips zero-width and bidi
// control code points, and collapses whitespace runs.
func Sanitize(text string) string {
	if nullMarkers[strings.ToLower(strings.TrimSpace(text))] {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isInvisibleControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return util.CollapseSpaces(b.String())
}

func isInvisibleControl(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\ufeff', // zero-width
		'\u200e', '\u200f', // LRM/RLM
		'\u202a', '\u202b', '\u202c', '\u202d', '\u202e', // embedding/override
		'\u2066', '\u2067', '\u2068', '\u2069': // isolates
		return true
	}
	return false
}

// ContainsRTL reports whether any code point falls in the Arabic blocks.
func ContainsRTL(text string) bool {
	for _, r := range text {
		if isArabic(r) {
			return true
		}
	}
	return false
}

func isArabic(r rune) bool {
	switch {
	case r >= 0x0600 && r <= 0x06FF:
		return true
	case r >= 0x0750 && r <= 0x077F:
		return true
	case r >= 0x08A0 && r <= 0x08FF:
		return true
	case r >= 0xFB50 && r <= 0xFDFF:
		return true
	case r >= 0xFE70 && r <= 0xFEFF:
		return true
	}
	return false
}

// ShapeForOutput sanitizes and, for RTL text, applies contextual letter
// shaping followed by bidi reordering into visual order.
func ShapeForOutput(text string) string {
	clean := Sanitize(text)
	if clean == "" || !ContainsRTL(clean) {
		return clean
	}
	shaped, ok := shapeRTL(clean)
	if !ok {
		return clean
	}
	return shaped
}

// shapeRTL never lets a shaping panic or error escape; the caller draws
// the unshaped string instead.
func shapeRTL(text string) (result string, ok bool) {
	defer func() {
		if recover() != nil {
			result, ok = "", false
		}
	}()

	shaped := garabic.Shape(text)
	visual, err := reorderVisual(shaped)
	if err != nil {
		return shaped, true
	}
	return visual, true
}

// reorderVisual resolves the bidi runs of a paragraph and emits them in
// visual order, reversing the runes of each right-to-left run. PDF text
// placement is strictly left-to-right, so the string must arrive here in
// display order.
func reorderVisual(text string) (string, error) {
	var p bidi.Paragraph
	p.SetString(text)
	ordering, err := p.Order()
	if err != nil {
		return text, err
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		s := run.String()
		if run.Direction() == bidi.RightToLeft {
			s = reverseRunes(s)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func reverseRunes(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
