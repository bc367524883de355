package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reSpaces    = regexp.MustCompile(`\s+`)
	reThousands = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// UpperASCII uppercases only a-z. Arabic and every other non-Latin code
// point passes through untouched.
func UpperASCII(input string) string {
	out := []rune(input)
	for i, r := range out {
		if r >= 'a' && r <= 'z' {
			out[i] = r - ('a' - 'A')
		}
	}
	return string(out)
}

// UpperTrim is the canonical text-field form used for identity comparison.
func UpperTrim(input string) string {
	return strings.TrimSpace(UpperASCII(input))
}

// CollapseSpaces trims and squeezes internal whitespace runs to one space.
func CollapseSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// Tokenize splits on whitespace after collapsing, dropping empty tokens.
func Tokenize(input string) []string {
	norm := CollapseSpaces(input)
	if norm == "" {
		return nil
	}
	return strings.Split(norm, " ")
}

// ParseNumber parses a cell that may carry thousands separators or a
// decimal comma. Returns false for anything non-numeric.
func ParseNumber(input string) (float64, bool) {
	compact := strings.TrimSpace(strings.ReplaceAll(input, " ", " "))
	compact = strings.ReplaceAll(compact, " ", "")
	if compact == "" {
		return 0, false
	}
	switch {
	case reThousands.MatchString(compact):
		compact = strings.ReplaceAll(compact, ",", "")
	case strings.Contains(compact, ",") && !strings.Contains(compact, "."):
		compact = strings.ReplaceAll(compact, ",", ".")
	}
	v, err := strconv.ParseFloat(compact, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
