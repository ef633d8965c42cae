package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
)

// Stats summarizes a record set.
type Stats struct {
	LocationCount        int                            `json:"locationCount"`
	TotalHouseholdCount  int                            `json:"totalHouseholdCount"`
	TotalTitleDeedTarget int                            `json:"totalTitleDeedTarget"`
	TotalCaseCount       int                            `json:"totalCaseCount"`
	ProvinceCount        int                            `json:"provinceCount"`
	ByProvince           []ProvinceStats                `json:"byProvince"`
	ByProblem            map[domain.ProblemCategory]int `json:"byProblem"`
	ByLegalStatus        map[domain.LegalStatus]int     `json:"byLegalStatus"`
	YearRange            YearRange                      `json:"yearRange"`
	Timeline             []TimelinePoint                `json:"timeline"`
}

// ProvinceStats is one group of the per-province breakdown.
type ProvinceStats struct {
	Province        string `json:"province"`
	Locations       int    `json:"locations"`
	Households      int    `json:"households"`
	TitleDeedTarget int    `json:"titleDeedTarget"`
	Cases           int    `json:"cases"`
}

// YearRange is the span of years seen in a record set.
// Valid is false when no record carried a numeric year.
type YearRange struct {
	Min   int  `json:"min"`
	Max   int  `json:"max"`
	Valid bool `json:"valid"`
}

// Err returns errors.ErrEmptyAggregationRange when the range holds no year.
func (y YearRange) Err() error {
	if y.Valid {
		return nil
	}

	return errors.ErrEmptyAggregationRange
}

func (y *YearRange) observe(year int) {
	if !y.Valid {
		*y = YearRange{Min: year, Max: year, Valid: true}

		return
	}

	y.Min = min(y.Min, year)
	y.Max = max(y.Max, year)
}

// TimelinePoint counts allocations and handovers for one year.
type TimelinePoint struct {
	Year       string `json:"year"`
	Allocated  int    `json:"allocated"`
	HandedOver int    `json:"handedOver"`
}

// Aggregate computes Stats over records. Empty input yields zero stats.
func Aggregate(records []domain.Record) Stats {
	st := Stats{
		ByProvince:    []ProvinceStats{},
		ByProblem:     make(map[domain.ProblemCategory]int, len(problemOrder)),
		ByLegalStatus: make(map[domain.LegalStatus]int, len(legalStatusOrder)),
		Timeline:      []TimelinePoint{},
	}

	for _, p := range problemOrder {
		st.ByProblem[p] = 0
	}

	for _, s := range legalStatusOrder {
		st.ByLegalStatus[s] = 0
	}

	provinceIdx := make(map[string]int)
	timeline := make(map[string]*TimelinePoint)

	for i := range records {
		r := &records[i]

		st.LocationCount++
		st.TotalHouseholdCount += r.HouseholdCount
		st.TotalTitleDeedTarget += r.TitleDeedTarget
		st.TotalCaseCount += r.CaseCount

		idx, ok := provinceIdx[r.Province]
		if !ok {
			idx = len(st.ByProvince)
			provinceIdx[r.Province] = idx
			st.ByProvince = append(st.ByProvince, ProvinceStats{Province: r.Province})
		}

		ps := &st.ByProvince[idx]
		ps.Locations++
		ps.Households += r.HouseholdCount
		ps.TitleDeedTarget += r.TitleDeedTarget
		ps.Cases += r.CaseCount

		for _, p := range problemOrder {
			if r.HasProblem(p) {
				st.ByProblem[p]++
			}
		}

		for _, s := range legalStatusOrder {
			if r.HasLegalStatus(s) {
				st.ByLegalStatus[s]++
			}
		}

		allocated := r.CanonicalYear()
		handedOver := firstYearToken(r.YearHandedOver)

		for _, y := range [...]string{allocated, handedOver} {
			if n, ok := parseYear(y); ok {
				st.YearRange.observe(n)
			}
		}

		if allocated != "" {
			timelinePoint(timeline, allocated).Allocated++
		}

		if handedOver != "" {
			timelinePoint(timeline, handedOver).HandedOver++
		}
	}

	st.ProvinceCount = len(st.ByProvince)
	st.Timeline = sortedTimeline(timeline)

	return st
}

var problemOrder = func() []domain.ProblemCategory {
	opts := domain.ProblemOptions()
	out := make([]domain.ProblemCategory, len(opts))

	for i, o := range opts {
		out[i] = o.Value
	}

	return out
}()

var legalStatusOrder = func() []domain.LegalStatus {
	opts := domain.LegalStatusOptions()
	out := make([]domain.LegalStatus, len(opts))

	for i, o := range opts {
		out[i] = o.Value
	}

	return out
}()

func timelinePoint(m map[string]*TimelinePoint, year string) *TimelinePoint {
	p, ok := m[year]
	if !ok {
		p = &TimelinePoint{Year: year}
		m[year] = p
	}

	return p
}

func sortedTimeline(m map[string]*TimelinePoint) []TimelinePoint {
	out := make([]TimelinePoint, 0, len(m))
	for _, p := range m {
		out = append(out, *p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })

	return out
}

func firstYearToken(s string) string {
	first, _, _ := strings.Cut(s, domain.YearSeparator)

	return strings.TrimSpace(first)
}

// parseYear accepts a plain non-negative integer; anything else is not a year.
func parseYear(s string) (int, bool) {
	if s == "" {
		return 0, false
	}

	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}

	return n, true
}

// String renders the range as "2005–2010", "2005" or an empty string.
func (y YearRange) String() string {
	switch {
	case !y.Valid:
		return ""
	case y.Min == y.Max:
		return strconv.Itoa(y.Min)
	default:
		return fmt.Sprintf("%d–%d", y.Min, y.Max)
	}
}
