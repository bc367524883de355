// Package schema reconciles the Legacy (BARCODE/BRAND/ITEM/REG/PROMO) and
// Fresh (PLU/ARABIC_DESCRIPTION/ENGLISH_DESCRIPTION/REGULAR_PRICE/
// PROMO_PRICE) vocabularies into one canonical comparison space. Nothing
// in this package returns an error; absent fields read as empty strings.
package schema

import (
	"labelmill/internal"
	"labelmill/internal/normalize"
	"labelmill/internal/util"
)

// CompareView is the canonical comparison form of a record, computed after
// Fresh→Legacy backfill.
type CompareView struct {
	Code    string // BARCODE preferred, PLU fallback, both cleaned
	ItemEq  string
	BrandEq string
	RegEq   string
	PromoEq string

	BarcodeEq string
	PLUEq     string
}

// IdentityKey is the minimal tuple naming "the same catalog item" across
// imports. Comparable, so it indexes maps directly.
type IdentityKey struct {
	Code  string
	Brand string
	Item  string
}

// Signature extends the identity with price/date/section fields. Equal
// signatures mean the same physical catalog entry regardless of which
// schema produced it.
type Signature struct {
	IdentityKey
	Reg     string
	Promo   string
	Start   string
	End     string
	Section string
	Coop    string
}

// MergeFreshLegacy backfills Legacy fields from their Fresh equivalents
// without touching populated values; merging never changes identity.
func MergeFreshLegacy(r internal.Record) internal.Record {
	out := r.Clone()
	if util.UpperTrim(out.Item) == "" && out.EnglishDesc != "" {
		out.Item = out.EnglishDesc
	}
	if out.Reg == "" && out.RegularPrice != "" {
		out.Reg = out.RegularPrice
	}
	if out.Promo == "" && out.PromoPrice != "" {
		out.Promo = out.PromoPrice
	}
	return out
}

// View computes the canonical comparison view of r.
func View(r internal.Record) CompareView {
	m := MergeFreshLegacy(r)

	barcode := normalize.CleanBarcode(m.Barcode)
	plu := normalize.CleanBarcode(m.PLU)
	code := barcode
	if code == "" {
		code = plu
	}

	brand := util.UpperTrim(m.Brand)
	if brand == "" {
		brand = util.UpperTrim(m.ArabicDesc)
	}

	return CompareView{
		Code:      code,
		ItemEq:    util.UpperTrim(m.Item),
		BrandEq:   brand,
		RegEq:     normalize.PriceText(m.Reg),
		PromoEq:   normalize.PriceText(m.Promo),
		BarcodeEq: barcode,
		PLUEq:     plu,
	}
}

// Identity returns the record's identity key. When all three components
// are empty the caller should fall back to the full dedup signature; see
// EmptyIdentity.
func Identity(r internal.Record) IdentityKey {
	v := View(r)
	return IdentityKey{Code: v.Code, Brand: v.BrandEq, Item: v.ItemEq}
}

// EmptyIdentity reports whether k carries no identifying information.
func EmptyIdentity(k IdentityKey) bool {
	return k.Code == "" && k.Brand == "" && k.Item == ""
}

// DedupSignature returns the record's full dedup signature.
func DedupSignature(r internal.Record) Signature {
	v := View(r)
	return Signature{
		IdentityKey: IdentityKey{Code: v.Code, Brand: v.BrandEq, Item: v.ItemEq},
		Reg:         v.RegEq,
		Promo:       v.PromoEq,
		Start:       normalize.DateOnly(r.StartDate),
		End:         normalize.DateOnly(r.EndDate),
		Section:     util.UpperTrim(r.Section),
		Coop:        normalize.PriceText(r.Coop),
	}
}

// IsComplete gates a record for persistence. Legacy mode requires strict
// BARCODE+BRAND+ITEM; Fresh mode accepts either schema's equivalent for
// each slot.
func IsComplete(r internal.Record, mode internal.Mode) bool {
	if mode == internal.ModeLegacy {
		return util.UpperTrim(r.Barcode) != "" &&
			util.UpperTrim(r.Brand) != "" &&
			util.UpperTrim(r.Item) != ""
	}
	code := normalize.CleanBarcode(r.Barcode)
	if code == "" {
		code = normalize.CleanBarcode(r.PLU)
	}
	brand := util.UpperTrim(r.Brand)
	if brand == "" {
		brand = util.UpperTrim(r.ArabicDesc)
	}
	item := util.UpperTrim(r.Item)
	if item == "" {
		item = util.UpperTrim(r.EnglishDesc)
	}
	return code != "" && brand != "" && item != ""
}
