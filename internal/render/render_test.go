package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"

	"labelmill/internal"
	"labelmill/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		FitShrinkStepPt:   0.5,
		FitMinSizePt:      4,
		PriceDecimalScale: 0.6,
		StackMinGapMM:     1.5,
		SlotClipMarginMM:  1.0,
	}
}

func twoSlotTemplate(t *testing.T) *Template {
	t.Helper()
	tpl, err := Parse([]byte(`{
		"page_size": "A4",
		"positions": {
			"0": {
				"0": {
					"BRAND": {"x": 10, "y": 15},
					"ITEM": {"x": 10, "y": 22},
					"PROMO": {"x": 10, "y": 30},
					"BARCODE": {"x": 10, "y": 45}
				},
				"1": {
					"BRAND": {"x": 115, "y": 15},
					"ITEM": {"x": 115, "y": 22},
					"PROMO": {"x": 115, "y": 30},
					"BARCODE": {"x": 115, "y": 45}
				}
			}
		}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	return tpl
}

func TestResolveField(t *testing.T) {
	rec := internal.Record{PLU: "4011", EnglishDesc: "BANANA", PromoPrice: "3.50"}
	tests := []struct {
		field string
		want  string
	}{
		{"BARCODE", "4011"},
		{"PLU", "4011"},
		{"ITEM", "BANANA"},
		{"English Description", "BANANA"},
		{"PROMO", "3.50"},
		{"promo_price", "3.50"},
		{"SECTION", ""},
	}
	for _, tt := range tests {
		if got := ResolveField(rec, tt.field); got != tt.want {
			t.Errorf("ResolveField(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestMeaningful(t *testing.T) {
	tests := []struct {
		name string
		rec  internal.Record
		want bool
	}{
		{"legacy row", internal.Record{Item: "WIDGET", Promo: "8.00"}, true},
		{"fresh row", internal.Record{EnglishDesc: "BANANA", PromoPrice: "3.50"}, true},
		{"reg price only", internal.Record{Item: "WIDGET", Reg: "5.00"}, true},
		{"name too short", internal.Record{Item: "AB", Promo: "8.00"}, false},
		{"zero price", internal.Record{Item: "WIDGET", Promo: "0.00"}, false},
		{"no price", internal.Record{Item: "WIDGET"}, false},
		{"empty", internal.Record{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Meaningful(tt.rec); got != tt.want {
				t.Errorf("Meaningful = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildPages(t *testing.T) {
	rows := []internal.Record{
		{Item: "ALPHA", Promo: "1.00"},
		{Item: "XX"}, // filtered
		{Item: "BRAVO", Promo: "2.00"},
		{Item: "CHARLIE", Promo: "3.00"},
	}
	pages := BuildPages(rows, 2)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if len(pages[0]) != 2 || len(pages[1]) != 1 {
		t.Errorf("page sizes = %d, %d", len(pages[0]), len(pages[1]))
	}
	if pages[1][0].Item != "CHARLIE" {
		t.Errorf("last page holds %q", pages[1][0].Item)
	}
	if got := BuildPages(nil, 2); got != nil {
		t.Errorf("no rows should build no pages, got %d", len(got))
	}
}

func TestRenderFileWritesPages(t *testing.T) {
	out := filepath.Join(t.TempDir(), "labels.pdf")
	r := New(nil, testConfig(), nil)

	rows := []internal.Record{
		{Barcode: "6291041500213", Brand: "ACME", Item: "WIDGET DELUXE", Promo: "8.00"},
		{Barcode: "6291041500214", Brand: "ACME", Item: "WIDGET CLASSIC", Promo: "6.50"},
		{Barcode: "6291041500215", Brand: "ACME", Item: "WIDGET MINI", Promo: "4.00"},
	}
	pages, err := r.RenderFile(rows, twoSlotTemplate(t), out)
	if err != nil {
		t.Fatal(err)
	}
	if pages != 2 {
		t.Errorf("pages = %d, want 2", pages)
	}

	f, doc, err := pdf.Open(out)
	if err != nil {
		t.Fatalf("reading rendered file: %v", err)
	}
	defer f.Close()
	if got := doc.NumPage(); got != 2 {
		t.Errorf("PDF page count = %d, want 2", got)
	}

	page := doc.Page(1)
	if page.V.IsNull() {
		t.Fatal("first page missing")
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		t.Fatalf("extracting page text: %v", err)
	}
	for _, want := range []string{"ACME", "WIDGET DELUXE", "8", ".00"} {
		if !strings.Contains(text, want) {
			t.Errorf("page 1 text missing %q:\n%s", want, text)
		}
	}
}

func TestRenderFileSuppressesEmptyOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "labels.pdf")
	// A stale artifact from a previous run must not survive.
	if err := os.WriteFile(out, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(nil, testConfig(), nil)
	rows := []internal.Record{
		{Item: "XX", Promo: "8.00"},
		{Item: "WIDGET", Promo: "0.00"},
	}
	pages, err := r.RenderFile(rows, twoSlotTemplate(t), out)
	if err != nil {
		t.Fatal(err)
	}
	if pages != 0 {
		t.Errorf("pages = %d, want 0", pages)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no file should remain on disk when nothing renders")
	}
}

func TestRenderFileNoLayout(t *testing.T) {
	tpl := &Template{}
	r := New(nil, testConfig(), nil)
	if _, err := r.RenderFile(nil, tpl, filepath.Join(t.TempDir(), "x.pdf")); err != ErrNoLayout {
		t.Errorf("err = %v, want ErrNoLayout", err)
	}
}
