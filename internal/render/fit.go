package render

import (
	"math"
	"regexp"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"labelmill/internal/normalize"
	"labelmill/internal/shaping"
)

const mmPerPt = 25.4 / 72

var rePriceForm = regexp.MustCompile(`^\d+\.\d{2}$`)

// availWidth resolves the drawable width for an anchor: left-anchored text
// owns everything to the right boundary, right-anchored everything to the
// left boundary, centered text twice the smaller half-distance. An
// explicit max width caps the result.
func availWidth(x float64, align string, left, right, maxW float64) float64 {
	var w float64
	switch align {
	case "right":
		w = x - left
	case "center":
		w = 2 * math.Min(x-left, right-x)
	default:
		w = right - x
	}
	if maxW > 0 && maxW < w {
		w = maxW
	}
	return math.Max(w, 0)
}

// slotBounds returns the horizontal extent a slot may draw in.
func slotBounds(side int, twoCol bool, pageW, margin float64) (left, right float64) {
	if !twoCol {
		return margin, pageW - margin
	}
	half := pageW / 2
	if side == 0 {
		return margin, half - margin
	}
	return half + margin, pageW - margin
}

// slotClipRect is the clip region established before painting a slot in a
// two-column layout; no paint operation can cross the page midline no
// matter what the text-box math produced.
func slotClipRect(side int, pageW, pageH, margin float64) (x, y, w, h float64) {
	half := pageW / 2
	if side == 0 {
		return margin, 0, half - 2*margin, pageH
	}
	return half + margin, 0, half - 2*margin, pageH
}

// wrapTwo greedily fills the first line, pushing the remainder to a
// second. Returns false when the text is a single word, when everything
// fits on one line, or when the second line still overflows.
func wrapTwo(text string, avail float64, measure func(string) float64) (line1, line2 string, ok bool) {
	words := strings.Fields(text)
	if len(words) < 2 {
		return "", "", false
	}

	cut := 0
	for i := 1; i < len(words); i++ {
		if measure(strings.Join(words[:i], " ")) <= avail {
			cut = i
		} else {
			break
		}
	}
	if cut == 0 || cut == len(words) {
		return "", "", false
	}

	line1 = strings.Join(words[:cut], " ")
	line2 = strings.Join(words[cut:], " ")
	if measure(line2) > avail {
		return "", "", false
	}
	return line1, line2, true
}

// splitPrice separates a price-like string into its integer and scaled
// decimal runs ("8.00" -> "8", ".00").
func splitPrice(text string) (intPart, decPart string, ok bool) {
	p := normalize.PriceText(text)
	if !rePriceForm.MatchString(p) {
		return "", "", false
	}
	dot := strings.IndexByte(p, '.')
	return p[:dot], p[dot:], true
}

// Fitter draws one field's text inside its box, wrapping then shrinking
// until it fits.
type Fitter struct {
	pdf        *fpdf.Fpdf
	fonts      *shaping.Registry
	shrinkStep float64
}

func NewFitter(pdf *fpdf.Fpdf, fonts *shaping.Registry, shrinkStep float64) *Fitter {
	if shrinkStep <= 0 {
		shrinkStep = 0.5
	}
	return &Fitter{pdf: pdf, fonts: fonts, shrinkStep: shrinkStep}
}

func (f *Fitter) setFont(face shaping.Face, style Style, size float64) {
	deco := face.Style
	if style.Underline {
		deco += "U"
	}
	f.pdf.SetFont(face.Family, deco, size)
}

func lineHeight(sizePt, leading float64) float64 {
	return sizePt * mmPerPt * leading
}

// DrawText fits and paints a text field. Returns the vertical extent used
// in millimeters so stacked blocks can push following fields down.
func (f *Fitter) DrawText(text string, pos FieldPos, style Style, left, right float64) float64 {
	shaped := shaping.ShapeForOutput(text)
	if shaped == "" {
		return 0
	}
	rtl := shaping.ContainsRTL(shaped)
	face := f.fonts.Resolve(style.Family, style.Bold, style.Italic, rtl)
	avail := availWidth(pos.X, pos.Align, left, right, pos.MaxWMM)
	measure := func(s string) float64 { return f.pdf.GetStringWidth(s) }

	size := style.Size
	for {
		f.setFont(face, style, size)
		if measure(shaped) <= avail {
			f.drawRun(shaped, pos.X, pos.Y, avail, pos.Align, face, style, size)
			return lineHeight(size, style.Leading)
		}
		if !pos.NoWrap {
			if l1, l2, ok := wrapTwo(shaped, avail, measure); ok {
				lh := lineHeight(size, style.Leading)
				f.drawRun(l1, pos.X, pos.Y, avail, pos.Align, face, style, size)
				f.drawRun(l2, pos.X, pos.Y+lh, avail, pos.Align, face, style, size)
				return 2 * lh
			}
		}
		if size-f.shrinkStep < style.MinSize {
			// Floor reached; the slot clip keeps any residual overflow
			// inside the slot.
			f.drawRun(shaped, pos.X, pos.Y, avail, pos.Align, face, style, size)
			return lineHeight(size, style.Leading)
		}
		size -= f.shrinkStep
	}
}

// DrawPrice paints a price as two runs: the integer part at full size and
// the decimals scaled down, concatenated with no gap and aligned on their
// combined width. Non-price text falls back to generic fitting.
func (f *Fitter) DrawPrice(text string, pos FieldPos, style Style, left, right float64) float64 {
	intPart, decPart, ok := splitPrice(text)
	if !ok {
		return f.DrawText(text, pos, style, left, right)
	}

	face := f.fonts.Resolve(style.Family, style.Bold, style.Italic, false)
	avail := availWidth(pos.X, pos.Align, left, right, pos.MaxWMM)

	size := style.Size
	var wInt, wDec float64
	for {
		f.setFont(face, style, size)
		wInt = f.pdf.GetStringWidth(intPart)
		f.setFont(face, style, size*style.DecimalScale)
		wDec = f.pdf.GetStringWidth(decPart)
		if wInt+wDec <= avail || size-f.shrinkStep < style.MinSize {
			break
		}
		size -= f.shrinkStep
	}

	total := wInt + wDec
	startX := pos.X
	switch pos.Align {
	case "right":
		startX = pos.X - total
	case "center":
		startX = pos.X - total/2
	}

	f.setFont(face, style, size)
	f.paint(intPart, startX, pos.Y, total, face, style, size)
	f.setFont(face, style, size*style.DecimalScale)
	f.paint(decPart, startX+wInt, pos.Y, 0, face, style, size*style.DecimalScale)
	return lineHeight(size, style.Leading)
}

// drawRun aligns one line inside its box and paints it.
func (f *Fitter) drawRun(s string, x, y, avail float64, align string, face shaping.Face, style Style, size float64) {
	w := f.pdf.GetStringWidth(s)
	drawX := x
	switch align {
	case "right":
		drawX = x - w
	case "center":
		drawX = x - w/2
	}
	f.paint(s, drawX, y, w, face, style, size)
}

// paint writes glyphs at a resolved position, emulating bold with two
// extra sub-pixel passes when the face has no true bold variant.
func (f *Fitter) paint(s string, x, y, strikeW float64, face shaping.Face, style Style, size float64) {
	r, g, b := ParseColor(style.Color)
	f.pdf.SetTextColor(r, g, b)

	f.pdf.Text(x, y, s)
	if style.Bold && !f.fonts.HasTrueBold(face) {
		f.pdf.Text(x+0.05, y, s)
		f.pdf.Text(x+0.1, y, s)
	}
	if style.Strike && strikeW > 0 {
		f.pdf.SetDrawColor(r, g, b)
		strikeY := y - size*mmPerPt*0.3
		f.pdf.SetLineWidth(math.Max(size*mmPerPt*0.05, 0.2))
		f.pdf.Line(x, strikeY, x+strikeW, strikeY)
	}
}
