package shaping

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "nan marker", input: "nan", want: ""},
		{name: "null marker mixed case", input: " NULL ", want: ""},
		{name: "dash marker", input: "-", want: ""},
		{name: "zero width stripped", input: "AB​C", want: "ABC"},
		{name: "bidi controls stripped", input: "‫مرحبا‬", want: "مرحبا"},
		{name: "whitespace collapsed", input: "  a \t b  ", want: "a b"},
		{name: "plain text", input: "ACME", want: "ACME"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.input); got != tc.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestContainsRTL(t *testing.T) {
	if ContainsRTL("plain latin 123") {
		t.Fatal("false positive")
	}
	if !ContainsRTL("حليب") {
		t.Fatal("missed Arabic block")
	}
	if !ContainsRTL("mixed حليب text") {
		t.Fatal("missed mixed text")
	}
	// Presentation forms count too.
	if !ContainsRTL("ﭑ") {
		t.Fatal("missed presentation form")
	}
}

func TestShapeForOutputLatinUntouched(t *testing.T) {
	if got := ShapeForOutput("ACME Widget"); got != "ACME Widget" {
		t.Fatalf("got %q", got)
	}
}

func TestShapeForOutputArabicNeverEmpty(t *testing.T) {
	in := "حليب كامل الدسم"
	got := ShapeForOutput(in)
	if got == "" {
		t.Fatal("shaped text dropped")
	}
	if len([]rune(got)) == 0 {
		t.Fatal("empty rune sequence")
	}
}

func TestResolvePrefersExactVariant(t *testing.T) {
	g := NewRegistry("")
	g.AddUTF8("Cairo", "", []byte{1})
	g.AddUTF8("Cairo", "B", []byte{2})

	face := g.Resolve("Cairo", true, false, false)
	if face.Family != "cairo" || face.Style != "B" || !face.UTF8 {
		t.Fatalf("face = %+v", face)
	}
}

func TestResolveFallsBackToRegular(t *testing.T) {
	g := NewRegistry("")
	g.AddUTF8("Cairo", "", []byte{1})

	face := g.Resolve("Cairo", true, true, false)
	if face.Family != "cairo" || face.Style != "" {
		t.Fatalf("face = %+v", face)
	}
	if g.HasTrueBold(face) {
		t.Fatal("cairo has no bold variant")
	}
}

func TestResolveBuiltinFallback(t *testing.T) {
	g := NewRegistry("")
	face := g.Resolve("Times New Roman", false, true, false)
	if face.Family != BuiltinSerif || face.Style != "I" || face.UTF8 {
		t.Fatalf("face = %+v", face)
	}
	if !g.HasTrueBold(face) {
		t.Fatal("builtin faces carry bold")
	}
}

func TestRTLForcesArabicFace(t *testing.T) {
	g := NewRegistry("Naskh")
	g.AddUTF8("Naskh", "", []byte{1})

	face := g.Resolve("Helvetica", false, false, true)
	if face.Family != "naskh" {
		t.Fatalf("face = %+v", face)
	}
}

func TestReverseRunes(t *testing.T) {
	if got := reverseRunes("abc"); got != "cba" {
		t.Fatalf("got %q", got)
	}
}
