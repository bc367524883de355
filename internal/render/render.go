package render

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/barcode"
	"go.uber.org/zap"

	"labelmill/internal"
	"labelmill/internal/config"
	"labelmill/internal/shaping"
	"labelmill/internal/util"
)

// fieldLookup resolves a template header name (canonicalized) to the
// record fields that may carry its value, in preference order. Template
// authors write headers loosely; records are canonical.
var fieldLookup = map[string][]string{
	"BARCODE":            {internal.FieldBarcode, internal.FieldPLU},
	"PLU":                {internal.FieldPLU, internal.FieldBarcode},
	"BRAND":              {internal.FieldBrand, internal.FieldArabicDesc},
	"ARABICDESCRIPTION":  {internal.FieldArabicDesc, internal.FieldBrand},
	"ITEM":               {internal.FieldItem, internal.FieldEnglishDesc},
	"ENGLISHDESCRIPTION": {internal.FieldEnglishDesc, internal.FieldItem},
	"DESCRIPTION":        {internal.FieldItem, internal.FieldEnglishDesc},
	"REG":                {internal.FieldReg, internal.FieldRegularPrice},
	"REGULARPRICE":       {internal.FieldRegularPrice, internal.FieldReg},
	"PROMO":              {internal.FieldPromo, internal.FieldPromoPrice},
	"PROMOPRICE":         {internal.FieldPromoPrice, internal.FieldPromo},
	"PRICE":              {internal.FieldPromo, internal.FieldPromoPrice, internal.FieldReg, internal.FieldRegularPrice},
	"UOM":                {internal.FieldUOM},
	"STARTDATE":          {internal.FieldStartDate},
	"ENDDATE":            {internal.FieldEndDate},
	"SECTION":            {internal.FieldSection},
	"COOP":               {internal.FieldCoop},
	"SOURCEFILE":         {internal.FieldSourceFile},
}

var priceFieldKeys = map[string]bool{
	"REG": true, "REGULARPRICE": true, "PROMO": true, "PROMOPRICE": true, "PRICE": true,
}

var brandFieldKeys = map[string]bool{"BRAND": true, "ARABICDESCRIPTION": true}

var itemFieldKeys = map[string]bool{"ITEM": true, "ENGLISHDESCRIPTION": true, "DESCRIPTION": true}

func canonKey(field string) string {
	s := strings.ToUpper(strings.TrimSpace(field))
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// ResolveField returns a record's value for a template header, following
// the alias table.
func ResolveField(rec internal.Record, field string) string {
	key := canonKey(field)
	if candidates, ok := fieldLookup[key]; ok {
		for _, f := range candidates {
			if v := shaping.Sanitize(rec.Get(f)); v != "" {
				return v
			}
		}
		return ""
	}
	return shaping.Sanitize(rec.Get(strings.TrimSpace(field)))
}

// Meaningful reports whether a row is worth a label slot: a resolvable
// name of at least three characters and a price that parses positive.
func Meaningful(rec internal.Record) bool {
	name := ResolveField(rec, "ITEM")
	if len([]rune(name)) < 3 {
		return false
	}
	for _, field := range []string{"PROMO", "REG"} {
		if v, ok := util.ParseNumber(ResolveField(rec, field)); ok && v > 0 {
			return true
		}
	}
	return false
}

// BuildPages filters rows to meaningful ones and groups them into pages
// of slotCount. Pages whose every slot would be empty are never built.
func BuildPages(rows []internal.Record, slotCount int) [][]internal.Record {
	if slotCount <= 0 {
		return nil
	}
	var kept []internal.Record
	for _, rec := range rows {
		if Meaningful(rec) {
			kept = append(kept, rec)
		}
	}
	var pages [][]internal.Record
	for start := 0; start < len(kept); start += slotCount {
		end := start + slotCount
		if end > len(kept) {
			end = len(kept)
		}
		pages = append(pages, kept[start:end])
	}
	return pages
}

// Renderer walks the slot grid page by page and paints records through
// the fitting engine.
type Renderer struct {
	fonts      *shaping.Registry
	log        *zap.Logger
	shrinkStep float64
	minSize    float64
	decScale   float64
	stackGap   float64
	clipMargin float64
}

func New(fonts *shaping.Registry, cfg config.Config, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	if fonts == nil {
		fonts = shaping.NewRegistry("")
	}
	return &Renderer{
		fonts:      fonts,
		log:        log,
		shrinkStep: cfg.FitShrinkStepPt,
		minSize:    cfg.FitMinSizePt,
		decScale:   cfg.PriceDecimalScale,
		stackGap:   cfg.StackMinGapMM,
		clipMargin: cfg.SlotClipMarginMM,
	}
}

// RenderFile renders rows through tpl into a PDF at outPath. When every
// row fails the meaningful filter no file is left on disk. Returns the
// number of pages written.
func (r *Renderer) RenderFile(rows []internal.Record, tpl *Template, outPath string) (int, error) {
	slots := tpl.Slots()
	if len(slots) == 0 {
		return 0, ErrNoLayout
	}
	tpl.SetFitDefaults(r.decScale, r.minSize)

	pages := BuildPages(rows, len(slots))
	if len(pages) == 0 {
		// Remove any partial artifact from an earlier run.
		_ = os.Remove(outPath)
		r.log.Info("render skipped: no meaningful rows", zap.String("out", outPath))
		return 0, nil
	}

	pdf := fpdf.New("P", "mm", tpl.PageSizeName(), "")
	pdf.SetAutoPageBreak(false, 0)
	r.fonts.Install(pdf)
	fit := NewFitter(pdf, r.fonts, r.shrinkStep)

	twoCol := tpl.TwoColumn()
	pageW, pageH := tpl.PageDims()

	for _, page := range pages {
		pdf.AddPage()
		for i, rec := range page {
			if i >= len(slots) {
				break
			}
			slot := slots[i]
			if twoCol {
				x, y, w, h := slotClipRect(slot.Side, pageW, pageH, r.clipMargin)
				pdf.ClipRect(x, y, w, h, false)
			}
			r.renderSlot(pdf, fit, tpl, slot, rec, twoCol, pageW)
			if twoCol {
				pdf.ClipEnd()
			}
		}
	}

	if pdf.Err() {
		return 0, pdf.Error()
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, err
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return 0, err
	}
	r.log.Info("render done", zap.String("out", outPath), zap.Int("pages", len(pages)))
	return len(pages), nil
}

// renderSlot paints one record into one slot. A slot carrying the
// brand/item/price trio stacks those three with measured gaps so no two
// blocks overlap; everything else renders at its configured position.
func (r *Renderer) renderSlot(pdf *fpdf.Fpdf, fit *Fitter, tpl *Template, slot Slot, rec internal.Record, twoCol bool, pageW float64) {
	left, right := slotBounds(slot.Side, twoCol, pageW, r.clipMargin)

	type placed struct {
		field string
		pos   FieldPos
	}
	var brand, item, price *placed
	var rest []placed

	for field, pos := range slot.Fields {
		if !tpl.FieldActive(field, pos) {
			continue
		}
		p := placed{field: field, pos: pos}
		key := canonKey(field)
		switch {
		case brand == nil && brandFieldKeys[key]:
			brand = &p
		case item == nil && itemFieldKeys[key]:
			item = &p
		case price == nil && priceFieldKeys[key]:
			price = &p
		default:
			rest = append(rest, p)
		}
	}

	if brand != nil && item != nil && price != nil {
		stack := []placed{*brand, *item, *price}
		sort.SliceStable(stack, func(i, j int) bool { return stack[i].pos.Y < stack[j].pos.Y })
		yFloor := 0.0
		for _, p := range stack {
			pos := p.pos
			if pos.Y < yFloor {
				pos.Y = yFloor
			}
			h := r.drawField(pdf, fit, tpl, p.field, pos, rec, left, right)
			gap := pos.GapAfterMM
			if gap <= 0 {
				gap = r.stackGap
			}
			yFloor = pos.Y + h + gap
		}
	} else {
		for _, p := range []*placed{brand, item, price} {
			if p != nil {
				rest = append(rest, *p)
			}
		}
	}

	for _, p := range rest {
		r.drawField(pdf, fit, tpl, p.field, p.pos, rec, left, right)
	}
}

var reShortPLU = regexp.MustCompile(`^\d{3,6}$`)

// smallPLUSizePt bounds the "rendered at small size" condition for the
// barcode affordance.
const smallPLUSizePt = 8

func (r *Renderer) drawField(pdf *fpdf.Fpdf, fit *Fitter, tpl *Template, field string, pos FieldPos, rec internal.Record, left, right float64) float64 {
	value := ResolveField(rec, field)
	if value == "" {
		return 0
	}
	style := tpl.StyleFor(field)
	key := canonKey(field)

	if priceFieldKeys[key] {
		return fit.DrawPrice(value, pos, style, left, right)
	}

	h := fit.DrawText(value, pos, style, left, right)

	// Small-size short PLUs get a linear barcode beneath as a visual aid.
	if key == "PLU" && style.Size <= smallPLUSizePt && reShortPLU.MatchString(value) {
		r.drawPLUBarcode(pdf, value, pos, left, right, h)
		h += barcodeHeightMM + 1
	}
	return h
}

const barcodeHeightMM = 6

func (r *Renderer) drawPLUBarcode(pdf *fpdf.Fpdf, value string, pos FieldPos, left, right, textH float64) {
	avail := availWidth(pos.X, pos.Align, left, right, pos.MaxWMM)
	w := avail
	if w > 25 {
		w = 25
	}
	if w <= 0 {
		return
	}
	x := pos.X
	switch pos.Align {
	case "right":
		x = pos.X - w
	case "center":
		x = pos.X - w/2
	}
	key := barcode.RegisterCode128(pdf, value)
	barcode.Barcode(pdf, key, x, pos.Y+textH, w, barcodeHeightMM, false)
}
