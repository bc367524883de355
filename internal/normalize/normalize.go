// Package normalize canonicalizes raw field values into stable string
// forms. Every function here is total: arbitrary input degrades to a
// best-effort literal, never an error.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	reAllDigits     = regexp.MustCompile(`^\d+$`)
	reNumericLike   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	reCurrencyToken = regexp.MustCompile(`(?i)^(AED|DHS|QR|SAR|USD)\b\.?\s*`)
)

// CleanBarcode strips the ".0" float artifact spreadsheets attach to
// numeric cells and expands scientific notation to an exact integer
// string. Decimal arithmetic keeps long EAN-13 codes free of float drift.
// Anything non-numeric comes back trimmed but otherwise unchanged.
func CleanBarcode(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	// Pure digit strings are already clean; re-rendering them through
	// decimal would strip the leading zeros UPC-A codes carry.
	if reAllDigits.MatchString(s) {
		return s
	}
	if rest, ok := strings.CutSuffix(s, ".0"); ok && reAllDigits.MatchString(rest) {
		return rest
	}
	if reNumericLike.MatchString(s) {
		d, err := decimal.NewFromString(s)
		if err == nil && d.IsInteger() {
			return d.String()
		}
	}
	return s
}

// PriceText formats price-looking input to exactly two decimals. Empty
// input stays empty, an all-zero value collapses to "0.00", and text that
// does not parse as a number passes through unchanged.
func PriceText(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	s = reCurrencyToken.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s = s + "0"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return strings.TrimSpace(v)
	}
	if d.IsZero() {
		return "0.00"
	}
	return d.StringFixed(2)
}

// dateLayouts is ordered: day-first layouts are tried before the US form
// so "01/12/2025" reads as the 1st of December.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
}

// DateOnly normalizes a date or datetime string to dd.mm.yyyy. Strings
// that match no known layout pass through unchanged.
func DateOnly(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	// Drop a trailing time component ("2025-12-01 00:00:00", ISO "T...").
	head := s
	if i := strings.IndexAny(head, "T "); i > 0 {
		head = head[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, head); err == nil {
			return t.Format("02.01.2006")
		}
	}
	return s
}
