package render

import (
	"math"
	"testing"
)

func TestAvailWidth(t *testing.T) {
	tests := []struct {
		name  string
		x     float64
		align string
		left  float64
		right float64
		maxW  float64
		want  float64
	}{
		{"left anchored", 10, "left", 5, 100, 0, 90},
		{"right anchored", 90, "right", 5, 100, 0, 85},
		{"centered", 50, "center", 5, 100, 0, 90},
		{"centered near edge", 20, "center", 5, 100, 0, 30},
		{"capped by max_w", 10, "left", 5, 100, 40, 40},
		{"max_w wider than box", 10, "left", 5, 100, 500, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := availWidth(tt.x, tt.align, tt.left, tt.right, tt.maxW)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("availWidth = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlotClipRectNeverCrossesMidline(t *testing.T) {
	const pageW, pageH, margin = 210.0, 297.0, 1.0

	x0, y0, w0, h0 := slotClipRect(0, pageW, pageH, margin)
	if x0+w0 > pageW/2 {
		t.Errorf("left clip extends to %v, past midline %v", x0+w0, pageW/2)
	}
	if y0 != 0 || h0 != pageH {
		t.Errorf("left clip vertical extent = %v..%v", y0, y0+h0)
	}

	x1, _, w1, _ := slotClipRect(1, pageW, pageH, margin)
	if x1 < pageW/2 {
		t.Errorf("right clip starts at %v, before midline %v", x1, pageW/2)
	}
	if x1+w1 > pageW {
		t.Errorf("right clip extends past page edge: %v", x1+w1)
	}
}

func TestSlotBounds(t *testing.T) {
	const pageW, margin = 210.0, 1.0

	l, r := slotBounds(0, false, pageW, margin)
	if l != margin || r != pageW-margin {
		t.Errorf("single column bounds = %v..%v", l, r)
	}

	l, r = slotBounds(0, true, pageW, margin)
	if l != margin || r != pageW/2-margin {
		t.Errorf("left slot bounds = %v..%v", l, r)
	}

	l, r = slotBounds(1, true, pageW, margin)
	if l != pageW/2+margin || r != pageW-margin {
		t.Errorf("right slot bounds = %v..%v", l, r)
	}
}

func TestWrapTwo(t *testing.T) {
	// 1mm per character including spaces.
	measure := func(s string) float64 { return float64(len(s)) }

	l1, l2, ok := wrapTwo("FRESH CHICKEN BREAST FILLET", 15, measure)
	if !ok {
		t.Fatal("expected a two-line split")
	}
	if l1 != "FRESH CHICKEN" || l2 != "BREAST FILLET" {
		t.Errorf("split = %q / %q", l1, l2)
	}

	if _, _, ok := wrapTwo("SINGLEWORD", 5, measure); ok {
		t.Error("single word should not wrap")
	}
	if _, _, ok := wrapTwo("A B", 100, measure); ok {
		t.Error("text that fits one line should not wrap")
	}
	if _, _, ok := wrapTwo("AA BBBBBBBBBBBBBBBBBBBB", 10, measure); ok {
		t.Error("overflowing second line should reject the split")
	}
}

func TestSplitPrice(t *testing.T) {
	tests := []struct {
		in      string
		intPart string
		decPart string
		ok      bool
	}{
		{"8.00", "8", ".00", true},
		{"AED 1,234.5", "1234", ".50", true},
		{"12", "12", ".00", true},
		{"free", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		i, d, ok := splitPrice(tt.in)
		if i != tt.intPart || d != tt.decPart || ok != tt.ok {
			t.Errorf("splitPrice(%q) = %q, %q, %v; want %q, %q, %v",
				tt.in, i, d, ok, tt.intPart, tt.decPart, tt.ok)
		}
	}
}
