// Package mapper infers a spreadsheet's column-to-field mapping from
// header synonyms and content heuristics. Every heuristic step reports
// "no mapping found" as data; nothing in this package raises.
package mapper

import (
	"regexp"
	"strings"
	"unicode"

	"labelmill/internal"
	"labelmill/internal/config"
	"labelmill/internal/util"
)

// Mapping is field name -> source column index.
type Mapping map[string]int

var defaultSynonyms = map[string][]string{
	internal.FieldBarcode:      {"barcode", "bar code", "ean", "ean13", "item code", "itemcode", "code"},
	internal.FieldBrand:        {"brand", "brand name", "supplier", "vendor"},
	internal.FieldItem:         {"item", "item description", "description", "product", "product name"},
	internal.FieldReg:          {"reg", "regular", "was", "old price", "price"},
	internal.FieldPromo:        {"promo", "offer", "now", "new price", "special"},
	internal.FieldStartDate:    {"start date", "start", "from"},
	internal.FieldEndDate:      {"end date", "end", "to"},
	internal.FieldSection:      {"section", "dept", "department", "category"},
	internal.FieldCoop:         {"coop", "co-op", "co op"},
	internal.FieldPLU:          {"plu", "plu code", "item no", "item number", "sku"},
	internal.FieldArabicDesc:   {"arabic description", "arabic desc", "arabic name", "arabic", "desc ar"},
	internal.FieldEnglishDesc:  {"english description", "english desc", "english name", "english", "desc en"},
	internal.FieldRegularPrice: {"regular price", "normal price", "regular", "price"},
	internal.FieldPromoPrice:   {"promo price", "promotion price", "offer price", "promo"},
	internal.FieldUOM:          {"uom", "unit", "unit of measure", "ed"},
}

// legacyOrder claims columns for Legacy fields first; freshOrder flips the
// priority when Fresh mode is active.
var legacyOrder = []string{
	internal.FieldBarcode, internal.FieldBrand, internal.FieldItem,
	internal.FieldReg, internal.FieldPromo,
	internal.FieldStartDate, internal.FieldEndDate,
	internal.FieldSection, internal.FieldCoop,
	internal.FieldPLU, internal.FieldArabicDesc, internal.FieldEnglishDesc,
	internal.FieldRegularPrice, internal.FieldPromoPrice, internal.FieldUOM,
}

var freshOrder = []string{
	internal.FieldPLU, internal.FieldArabicDesc, internal.FieldEnglishDesc,
	internal.FieldRegularPrice, internal.FieldPromoPrice, internal.FieldUOM,
	internal.FieldBarcode, internal.FieldBrand, internal.FieldItem,
	internal.FieldReg, internal.FieldPromo,
	internal.FieldStartDate, internal.FieldEndDate,
	internal.FieldSection, internal.FieldCoop,
}

var (
	reTimeLabel = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}(\s*[ap]m)?$`)
	reDateLabel = regexp.MustCompile(`^\d{1,4}[/.-]\d{1,2}([/.-]\d{1,4})?$`)
)

// MapColumns runs the full inference chain: synonym matching, adjacent
// price-pair detection, then brand inference.
func MapColumns(headers []string, sample [][]string, mode internal.Mode, cfg config.Config) Mapping {
	m := Mapping{}
	claimed := map[int]bool{}

	order := legacyOrder
	if mode == internal.ModeFresh {
		order = freshOrder
	}

	for _, field := range order {
		if col, ok := matchSynonym(field, headers, claimed); ok {
			m[field] = col
			claimed[col] = true
		}
	}

	inferPricePair(m, claimed, headers, sample, mode, cfg)
	inferBrand(m, claimed, headers, sample, cfg)

	return m
}

// RowsToRecords materializes sample rows through the mapping. Rows where
// every mapped field comes out empty are discarded.
func RowsToRecords(headers []string, rows [][]string, m Mapping, sourceFile, sourceSheet string) []internal.Record {
	out := make([]internal.Record, 0, len(rows))
	for _, cells := range rows {
		var rec internal.Record
		filled := false
		for field, col := range m {
			if col < 0 || col >= len(cells) {
				continue
			}
			v := util.CollapseSpaces(cells[col])
			if v == "" {
				continue
			}
			rec.Set(field, v)
			filled = true
		}
		if !filled {
			continue
		}
		rec.SourceFile = sourceFile
		rec.SourceSheet = sourceSheet
		out = append(out, rec)
	}
	return out
}

func normalizeLabel(h string) string {
	s := strings.ToLower(strings.TrimSpace(h))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, ".", " ")
	return util.CollapseSpaces(s)
}

func matchSynonym(field string, headers []string, claimed map[int]bool) (int, bool) {
	probes := append([]string{normalizeLabel(field)}, defaultSynonyms[field]...)
	for i, h := range headers {
		if claimed[i] {
			continue
		}
		label := normalizeLabel(h)
		if label == "" {
			continue
		}
		for _, probe := range probes {
			if label == probe {
				return i, true
			}
		}
	}
	return 0, false
}

// looksLikeTimeOrDate rejects header labels such as "10:30 AM" or
// "12/1/2024"; those columns are never price or brand candidates.
func looksLikeTimeOrDate(label string) bool {
	l := strings.TrimSpace(label)
	return reTimeLabel.MatchString(l) || reDateLabel.MatchString(l)
}

// pairStat counts, across the sample, rows where both columns parse as
// numbers and rows where the left value is strictly the larger.
type pairStat struct {
	parsed     int
	leftLarger int
}

func (p pairStat) ratio() float64 {
	if p.parsed == 0 {
		return 0
	}
	return float64(p.leftLarger) / float64(p.parsed)
}

func samplePair(sample [][]string, left, right int) pairStat {
	var st pairStat
	for _, row := range sample {
		if left >= len(row) || right >= len(row) {
			continue
		}
		lv, lok := util.ParseNumber(row[left])
		rv, rok := util.ParseNumber(row[right])
		if !lok || !rok {
			continue
		}
		st.parsed++
		if lv > rv {
			st.leftLarger++
		}
	}
	return st
}

// inferPricePair fills the regular/promo pair for the active mode when the
// synonym pass left one or both unmapped. Adjacent pairs qualify at the
// standard ratio; the any-pair fallback and the anchored half-pair search
// use the stricter one.
func inferPricePair(m Mapping, claimed map[int]bool, headers []string, sample [][]string, mode internal.Mode, cfg config.Config) {
	regField, promoField := internal.FieldReg, internal.FieldPromo
	if mode == internal.ModeFresh {
		regField, promoField = internal.FieldRegularPrice, internal.FieldPromoPrice
	}
	regCol, haveReg := m[regField]
	promoCol, havePromo := m[promoField]
	if haveReg && havePromo {
		return
	}

	usable := func(col int) bool {
		if col < 0 || col >= len(headers) || claimed[col] {
			return false
		}
		label := strings.TrimSpace(headers[col])
		// A numerically plausible pair under a blank header is still rejected.
		if label == "" || looksLikeTimeOrDate(label) {
			return false
		}
		return true
	}

	if haveReg != havePromo {
		// One half matched a synonym; anchor the search for the other on it.
		best, bestRatio := -1, 0.0
		for c := range headers {
			if !usable(c) {
				continue
			}
			var st pairStat
			if haveReg {
				st = samplePair(sample, regCol, c)
			} else {
				st = samplePair(sample, c, promoCol)
			}
			if st.parsed < cfg.PricePairMinRows {
				continue
			}
			if r := st.ratio(); r >= cfg.PricePairAnyRatio && r > bestRatio {
				best, bestRatio = c, r
			}
		}
		if best >= 0 {
			if haveReg {
				m[promoField] = best
			} else {
				m[regField] = best
			}
			claimed[best] = true
		}
		return
	}

	type hit struct {
		left, right int
		ratio       float64
	}
	var best *hit

	consider := func(left, right int, minRatio float64) {
		if !usable(left) || !usable(right) {
			return
		}
		st := samplePair(sample, left, right)
		if st.parsed < cfg.PricePairMinRows {
			return
		}
		if r := st.ratio(); r >= minRatio && (best == nil || r > best.ratio) {
			best = &hit{left: left, right: right, ratio: r}
		}
	}

	for i := 0; i < len(headers)-1; i++ {
		consider(i, i+1, cfg.PricePairAdjacentRatio)
	}
	if best == nil {
		for i := range headers {
			for j := range headers {
				if i != j {
					consider(i, j, cfg.PricePairAnyRatio)
				}
			}
		}
	}
	if best == nil {
		return
	}
	m[regField] = best.left
	m[promoField] = best.right
	claimed[best.left] = true
	claimed[best.right] = true
}

// descriptionColumn picks the column the prefix strategy compares against:
// the mapped item/description column, else the column with the longest
// average cell text.
func descriptionColumn(m Mapping, headers []string, sample [][]string) (int, bool) {
	for _, field := range []string{internal.FieldItem, internal.FieldEnglishDesc} {
		if col, ok := m[field]; ok {
			return col, true
		}
	}
	bestCol, bestLen := -1, 0.0
	for i := range headers {
		total, n := 0, 0
		for _, row := range sample {
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				total += len([]rune(row[i]))
				n++
			}
		}
		if n == 0 {
			continue
		}
		if avg := float64(total) / float64(n); avg > bestLen {
			bestLen, bestCol = avg, i
		}
	}
	return bestCol, bestCol >= 0
}

// prefixMatchRatio measures how often a candidate column's cell equals the
// first one or two words of the description column's cell.
func prefixMatchRatio(sample [][]string, descCol, candCol int) (float64, int) {
	comparable, matches := 0, 0
	for _, row := range sample {
		if descCol >= len(row) || candCol >= len(row) {
			continue
		}
		desc := util.UpperTrim(util.CollapseSpaces(row[descCol]))
		cand := util.UpperTrim(util.CollapseSpaces(row[candCol]))
		if desc == "" || cand == "" {
			continue
		}
		comparable++
		tokens := util.Tokenize(desc)
		if len(tokens) >= 1 && cand == tokens[0] {
			matches++
			continue
		}
		if len(tokens) >= 2 && cand == tokens[0]+" "+tokens[1] {
			matches++
		}
	}
	if comparable == 0 {
		return 0, 0
	}
	return float64(matches) / float64(comparable), comparable
}

// brandScore rates how brand-like a column's content is: mostly letters,
// heavy value repetition, short tokens. Digits and long free text push the
// score down.
func brandScore(sample [][]string, col int) float64 {
	letters, digits, runes := 0, 0, 0
	tokenCount, cellCount := 0, 0
	seen := map[string]int{}

	for _, row := range sample {
		if col >= len(row) {
			continue
		}
		cell := util.CollapseSpaces(row[col])
		if cell == "" {
			continue
		}
		cellCount++
		seen[util.UpperTrim(cell)]++
		tokenCount += len(util.Tokenize(cell))
		for _, r := range cell {
			runes++
			switch {
			case unicode.IsLetter(r):
				letters++
			case r >= '0' && r <= '9':
				digits++
			}
		}
	}
	if cellCount == 0 || runes == 0 {
		return 0
	}

	lettersRatio := float64(letters) / float64(runes)
	digitRatio := float64(digits) / float64(runes)
	duplicateRatio := 1 - float64(len(seen))/float64(cellCount)
	avgTokens := float64(tokenCount) / float64(cellCount)
	avgLen := float64(runes) / float64(cellCount)

	score := lettersRatio + 1.2*duplicateRatio - digitRatio
	if avgTokens <= 2 {
		score += 0.4
	}
	if avgLen > 24 || avgTokens > 4 {
		score -= 0.8 // long free text is a description, not a brand
	}
	return score
}

func headerLooksBrandLike(label string) bool {
	l := normalizeLabel(label)
	for _, probe := range defaultSynonyms[internal.FieldBrand] {
		if strings.Contains(l, probe) {
			return true
		}
	}
	return false
}

// inferBrand validates an already-mapped BRAND column and, when BRAND is
// missing or rejected, tries item-prefix matching then content scoring.
func inferBrand(m Mapping, claimed map[int]bool, headers []string, sample [][]string, cfg config.Config) {
	if col, ok := m[internal.FieldBrand]; ok {
		if headerLooksBrandLike(headers[col]) || brandScore(sample, col) >= cfg.BrandScoreKeep {
			return
		}
		delete(m, internal.FieldBrand)
		delete(claimed, col)
	}

	usable := func(col int) bool {
		if claimed[col] || col < 0 || col >= len(headers) {
			return false
		}
		return !looksLikeTimeOrDate(headers[col])
	}

	if descCol, ok := descriptionColumn(m, headers, sample); ok {
		bestCol, bestRatio := -1, 0.0
		for i := range headers {
			if i == descCol || !usable(i) {
				continue
			}
			ratio, comparable := prefixMatchRatio(sample, descCol, i)
			if comparable >= cfg.BrandPrefixMinRows && ratio >= cfg.BrandPrefixRatio && ratio > bestRatio {
				bestCol, bestRatio = i, ratio
			}
		}
		if bestCol >= 0 {
			m[internal.FieldBrand] = bestCol
			claimed[bestCol] = true
			return
		}
	}

	bestCol, bestScore := -1, 0.0
	for i := range headers {
		if !usable(i) {
			continue
		}
		if sc := brandScore(sample, i); sc >= cfg.BrandScoreAccept && sc > bestScore {
			bestCol, bestScore = i, sc
		}
	}
	if bestCol >= 0 {
		m[internal.FieldBrand] = bestCol
		claimed[bestCol] = true
	}
}
