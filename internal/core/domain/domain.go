// Package domain holds the land-dispute case model shared by every layer.
package domain

import (
	"strings"
	"time"
)

// DistrictSeparator joins a district name and its settlement unit (UPT)
// in the composite district field, e.g. "Kab. Pulau Morotai - UPT. Daruba SP.3".
const DistrictSeparator = " - "

// YearSeparator splits multi-year allocation values such as "2005/2006".
const YearSeparator = "/"

// Record is one land-dispute case tied to a transmigration settlement.
type Record struct {
	ID       string `json:"id"`
	Province string `json:"province"`
	District string `json:"district"`
	Pattern  string `json:"pattern"`

	YearAllocated  string `json:"yearAllocated"`
	YearHandedOver string `json:"yearHandedOver"`

	HouseholdCount  int    `json:"householdCount"`
	TitleDeedTarget int    `json:"titleDeedTarget"`
	CaseCount       int    `json:"caseCount"`
	HPL             string `json:"hpl"`

	StatusUnderManagementNoTitle       bool   `json:"statusUnderManagement_NoTitle"`
	StatusUnderManagementHasTitle      bool   `json:"statusUnderManagement_HasTitle"`
	StatusUnderManagementNotApplicable bool   `json:"statusUnderManagement_NotApplicable"`
	StatusHandedOverHasTitle           bool   `json:"statusHandedOver_HasTitle"`
	StatusHandedOverDecreeRef          string `json:"statusHandedOver_DecreeRef"`

	ProblemCommunity   bool `json:"problemCommunity"`
	ProblemCompany     bool `json:"problemCompany"`
	ProblemForestArea  bool `json:"problemForestArea"`
	ProblemMHA         bool `json:"problemMHA"`
	ProblemInstitution bool `json:"problemInstitution"`
	ProblemOther       bool `json:"problemOther"`

	ProblemDescription string `json:"problemDescription"`
	FollowUpAction     string `json:"followUpAction"`
	Recommendation     string `json:"recommendation"`

	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// CanonicalYear returns the first "/"-delimited token of YearAllocated.
func (r Record) CanonicalYear() string {
	first, _, _ := strings.Cut(r.YearAllocated, YearSeparator)

	return strings.TrimSpace(first)
}

// DistrictName returns the district part of the composite district field.
func (r Record) DistrictName() string {
	name, _, _ := strings.Cut(r.District, DistrictSeparator)

	return strings.TrimSpace(name)
}

// HasLegalStatus reports whether the flag behind s is set.
// The decree reference counts as set when it is a non-empty string.
func (r Record) HasLegalStatus(s LegalStatus) bool {
	switch s {
	case StatusUnderManagementNoTitle:
		return r.StatusUnderManagementNoTitle
	case StatusUnderManagementHasTitle:
		return r.StatusUnderManagementHasTitle
	case StatusUnderManagementNotApplicable:
		return r.StatusUnderManagementNotApplicable
	case StatusHandedOverHasTitle:
		return r.StatusHandedOverHasTitle
	case StatusHandedOverDecreeRef:
		return strings.TrimSpace(r.StatusHandedOverDecreeRef) != ""
	default:
		return false
	}
}

// HasProblem reports whether the problem-category flag behind p is set.
func (r Record) HasProblem(p ProblemCategory) bool {
	switch p {
	case ProblemCommunity:
		return r.ProblemCommunity
	case ProblemCompany:
		return r.ProblemCompany
	case ProblemForestArea:
		return r.ProblemForestArea
	case ProblemMHA:
		return r.ProblemMHA
	case ProblemInstitution:
		return r.ProblemInstitution
	case ProblemOther:
		return r.ProblemOther
	default:
		return false
	}
}
