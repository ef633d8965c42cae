package domain

import "strings"

// LegalStatus names one legal-status (HPL) flag of a Record.
type LegalStatus string

// Legal-status options. Under management ("bina") and handed over ("serah").
const (
	statusPrefixUnderManagement = "bina_"
	statusPrefixHandedOver      = "serah_"

	StatusUnderManagementNoTitle       LegalStatus = "bina_blm_hpl"
	StatusUnderManagementHasTitle      LegalStatus = "bina_sdh_hpl"
	StatusUnderManagementNotApplicable LegalStatus = "bina_tdk_hpl"
	StatusHandedOverHasTitle           LegalStatus = "serah_sdh_hpl"
	StatusHandedOverDecreeRef          LegalStatus = "serah_sk_serah"
)

// ProblemCategory names one problem-category flag of a Record.
type ProblemCategory string

// Problem-category options.
const (
	ProblemCommunity   ProblemCategory = "community"
	ProblemCompany     ProblemCategory = "company"
	ProblemForestArea  ProblemCategory = "forest"
	ProblemMHA         ProblemCategory = "mha"
	ProblemInstitution ProblemCategory = "institution"
	ProblemOther       ProblemCategory = "other"
)

// Option pairs a flag identifier with its display label.
type Option[T ~string] struct {
	Value T      `json:"value"`
	Label string `json:"label"`
}

var legalStatusOptions = []Option[LegalStatus]{
	{Value: StatusUnderManagementNoTitle, Label: "Bina - Belum HPL"},
	{Value: StatusUnderManagementHasTitle, Label: "Bina - Sudah HPL"},
	{Value: StatusUnderManagementNotApplicable, Label: "Bina - Tidak HPL"},
	{Value: StatusHandedOverHasTitle, Label: "Serah - Sudah HPL"},
	{Value: StatusHandedOverDecreeRef, Label: "Serah - SK Serah"},
}

var problemOptions = []Option[ProblemCategory]{
	{Value: ProblemForestArea, Label: "Kws Hutan"},
	{Value: ProblemCompany, Label: "Perusahaan"},
	{Value: ProblemMHA, Label: "MHA"},
	{Value: ProblemCommunity, Label: "Masyarakat"},
	{Value: ProblemInstitution, Label: "Instansi"},
	{Value: ProblemOther, Label: "Lain-lain"},
}

// LegalStatusOptions returns the legal-status options in display order.
func LegalStatusOptions() []Option[LegalStatus] {
	return append([]Option[LegalStatus](nil), legalStatusOptions...)
}

// ProblemOptions returns the problem-category options in display order.
func ProblemOptions() []Option[ProblemCategory] {
	return append([]Option[ProblemCategory](nil), problemOptions...)
}

// FilterCriteria is a sparse set of constraints over Record fields.
// A zero-valued field means no constraint on that field.
// StatusUnderManagement and StatusHandedOver are independent; when both are
// set a record must carry both flags.
type FilterCriteria struct {
	Province              string          `json:"province,omitempty"`
	District              string          `json:"district,omitempty"`
	YearAllocated         string          `json:"yearAllocated,omitempty"`
	YearHandedOver        string          `json:"yearHandedOver,omitempty"`
	StatusUnderManagement LegalStatus     `json:"statusUnderManagement,omitempty"`
	StatusHandedOver      LegalStatus     `json:"statusHandedOver,omitempty"`
	Problem               ProblemCategory `json:"problem,omitempty"`
	Query                 string          `json:"query,omitempty"`
}

// IsEmpty reports whether no constraint is present.
func (c FilterCriteria) IsEmpty() bool {
	return c == FilterCriteria{}
}

// Valid reports whether s is one of the known legal-status options.
func (s LegalStatus) Valid() bool {
	for _, o := range legalStatusOptions {
		if o.Value == s {
			return true
		}
	}

	return false
}

// UnderManagement reports whether s is one of the "bina" options.
func (s LegalStatus) UnderManagement() bool {
	return s.Valid() && strings.HasPrefix(string(s), statusPrefixUnderManagement)
}

// HandedOver reports whether s is one of the "serah" options.
func (s LegalStatus) HandedOver() bool {
	return s.Valid() && strings.HasPrefix(string(s), statusPrefixHandedOver)
}

// Valid reports whether p is one of the known problem categories.
func (p ProblemCategory) Valid() bool {
	for _, o := range problemOptions {
		if o.Value == p {
			return true
		}
	}

	return false
}
