// Package engine implements the filter and aggregation core shared by every
// dashboard view. It is pure: inputs are never mutated, the same inputs always
// produce the same outputs, and no function returns an error.
package engine

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
)

// Result is the output of Apply.
type Result struct {
	Filtered []domain.Record `json:"records"`
	Stats    Stats           `json:"stats"`
}

// Apply filters records by c and aggregates the filtered subset.
func Apply(records []domain.Record, c domain.FilterCriteria) Result {
	filtered := Filter(records, c)

	return Result{
		Filtered: filtered,
		Stats:    Aggregate(filtered),
	}
}

// Filter returns the records satisfying every present criterion, in input order.
// The returned slice is always non-nil and never aliases records.
func Filter(records []domain.Record, c domain.FilterCriteria) []domain.Record {
	out := make([]domain.Record, 0, len(records))

	m := newMatcher(c)

	for i := range records {
		if m.match(&records[i]) {
			out = append(out, records[i])
		}
	}

	return out
}

type matcher struct {
	c      domain.FilterCriteria
	caser  cases.Caser
	query  string
	filter bool
}

func newMatcher(c domain.FilterCriteria) *matcher {
	c.Province = strings.TrimSpace(c.Province)
	c.District = strings.TrimSpace(c.District)
	c.YearAllocated = strings.TrimSpace(c.YearAllocated)
	c.YearHandedOver = strings.TrimSpace(c.YearHandedOver)

	if !c.StatusUnderManagement.UnderManagement() {
		c.StatusUnderManagement = ""
	}

	if !c.StatusHandedOver.HandedOver() {
		c.StatusHandedOver = ""
	}

	if !c.Problem.Valid() {
		c.Problem = ""
	}

	if strings.TrimSpace(c.Query) == "" {
		c.Query = ""
	}

	m := &matcher{
		c:      c,
		caser:  cases.Fold(),
		filter: !c.IsEmpty(),
	}

	if c.Query != "" {
		m.query = m.caser.String(strings.TrimSpace(c.Query))
	}

	return m
}

func (m *matcher) match(r *domain.Record) bool {
	if !m.filter {
		return true
	}

	c := &m.c

	if c.Province != "" && strings.TrimSpace(r.Province) != c.Province {
		return false
	}

	if c.District != "" && !strings.HasPrefix(strings.TrimSpace(r.District), c.District) {
		return false
	}

	if c.YearAllocated != "" && r.CanonicalYear() != c.YearAllocated {
		return false
	}

	if c.YearHandedOver != "" && strings.TrimSpace(r.YearHandedOver) != c.YearHandedOver {
		return false
	}

	if c.StatusUnderManagement != "" && !r.HasLegalStatus(c.StatusUnderManagement) {
		return false
	}

	if c.StatusHandedOver != "" && !r.HasLegalStatus(c.StatusHandedOver) {
		return false
	}

	if c.Problem != "" && !r.HasProblem(c.Problem) {
		return false
	}

	if m.query != "" && !strings.Contains(m.caser.String(searchText(r)), m.query) {
		return false
	}

	return true
}

// searchText joins the fields covered by free-text search.
func searchText(r *domain.Record) string {
	return strings.Join([]string{
		r.Province,
		r.District,
		r.Pattern,
		r.YearAllocated,
		r.ProblemDescription,
		r.FollowUpAction,
		r.Recommendation,
	}, " ")
}
