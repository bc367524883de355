package internal

// Mode selects which field vocabulary drives identity and completeness.
// It is passed explicitly through every normalizer/mapper/renderer call;
// there is no ambient mode state.
type Mode int

const (
	ModeLegacy Mode = iota
	ModeFresh
)

func (m Mode) String() string {
	if m == ModeFresh {
		return "fresh"
	}
	return "legacy"
}

// Legacy field names.
const (
	FieldBarcode   = "BARCODE"
	FieldBrand     = "BRAND"
	FieldItem      = "ITEM"
	FieldReg       = "REG"
	FieldPromo     = "PROMO"
	FieldStartDate = "START_DATE"
	FieldEndDate   = "END_DATE"
	FieldSection   = "SECTION"
	FieldCoop      = "COOP"
)

// Fresh field names.
const (
	FieldPLU          = "PLU"
	FieldArabicDesc   = "ARABIC_DESCRIPTION"
	FieldEnglishDesc  = "ENGLISH_DESCRIPTION"
	FieldRegularPrice = "REGULAR_PRICE"
	FieldPromoPrice   = "PROMO_PRICE"
	FieldUOM          = "UOM"
)

// Meta field names.
const (
	FieldSourceFile  = "SOURCE_FILE"
	FieldSourceSheet = "SOURCE_SHEET"
)

// CoreFields is the store header order for the known field set. Extension
// fields follow these, sorted by name.
var CoreFields = []string{
	FieldBarcode, FieldBrand, FieldItem, FieldReg, FieldPromo,
	FieldStartDate, FieldEndDate, FieldSection, FieldCoop,
	FieldPLU, FieldArabicDesc, FieldEnglishDesc, FieldRegularPrice, FieldPromoPrice, FieldUOM,
	FieldSourceFile, FieldSourceSheet,
}

// Record is one catalog row. Known fields are typed struct members; any
// user-declared extension column lives in Extra and is validated at the
// store boundary.
type Record struct {
	Barcode   string
	Brand     string
	Item      string
	Reg       string
	Promo     string
	StartDate string
	EndDate   string
	Section   string
	Coop      string

	PLU          string
	ArabicDesc   string
	EnglishDesc  string
	RegularPrice string
	PromoPrice   string
	UOM          string

	SourceFile  string
	SourceSheet string

	Extra map[string]string
}

// Get returns the value of a named field, consulting Extra for unknown names.
func (r Record) Get(field string) string {
	switch field {
	case FieldBarcode:
		return r.Barcode
	case FieldBrand:
		return r.Brand
	case FieldItem:
		return r.Item
	case FieldReg:
		return r.Reg
	case FieldPromo:
		return r.Promo
	case FieldStartDate:
		return r.StartDate
	case FieldEndDate:
		return r.EndDate
	case FieldSection:
		return r.Section
	case FieldCoop:
		return r.Coop
	case FieldPLU:
		return r.PLU
	case FieldArabicDesc:
		return r.ArabicDesc
	case FieldEnglishDesc:
		return r.EnglishDesc
	case FieldRegularPrice:
		return r.RegularPrice
	case FieldPromoPrice:
		return r.PromoPrice
	case FieldUOM:
		return r.UOM
	case FieldSourceFile:
		return r.SourceFile
	case FieldSourceSheet:
		return r.SourceSheet
	}
	return r.Extra[field]
}

// Set assigns a named field, routing unknown names to Extra.
func (r *Record) Set(field, value string) {
	switch field {
	case FieldBarcode:
		r.Barcode = value
	case FieldBrand:
		r.Brand = value
	case FieldItem:
		r.Item = value
	case FieldReg:
		r.Reg = value
	case FieldPromo:
		r.Promo = value
	case FieldStartDate:
		r.StartDate = value
	case FieldEndDate:
		r.EndDate = value
	case FieldSection:
		r.Section = value
	case FieldCoop:
		r.Coop = value
	case FieldPLU:
		r.PLU = value
	case FieldArabicDesc:
		r.ArabicDesc = value
	case FieldEnglishDesc:
		r.EnglishDesc = value
	case FieldRegularPrice:
		r.RegularPrice = value
	case FieldPromoPrice:
		r.PromoPrice = value
	case FieldUOM:
		r.UOM = value
	case FieldSourceFile:
		r.SourceFile = value
	case FieldSourceSheet:
		r.SourceSheet = value
	default:
		if r.Extra == nil {
			r.Extra = map[string]string{}
		}
		r.Extra[field] = value
	}
}

// Clone returns a deep copy (the Extra map is not shared).
func (r Record) Clone() Record {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// IsKnownField reports whether name is one of the core fields.
func IsKnownField(name string) bool {
	for _, f := range CoreFields {
		if f == name {
			return true
		}
	}
	return false
}
