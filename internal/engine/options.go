package engine

import (
	"sort"
	"strings"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
)

// FilterOptions lists the values offered by the dashboard's filter controls.
type FilterOptions struct {
	Provinces     []string                                `json:"provinces"`
	Districts     []string                                `json:"districts"`
	Years         []string                                `json:"years"`
	HandoverYears []string                                `json:"handoverYears"`
	LegalStatuses []domain.Option[domain.LegalStatus]     `json:"legalStatuses"`
	Problems      []domain.Option[domain.ProblemCategory] `json:"problems"`
}

// Options builds the filter option lists. Districts are limited to province
// when it is non-empty.
func Options(records []domain.Record, province string) FilterOptions {
	return FilterOptions{
		Provinces:     DistinctProvinces(records),
		Districts:     DistinctDistricts(records, province),
		Years:         DistinctYears(records),
		HandoverYears: DistinctHandoverYears(records),
		LegalStatuses: domain.LegalStatusOptions(),
		Problems:      domain.ProblemOptions(),
	}
}

// DistinctProvinces returns provinces in first-appearance order.
func DistinctProvinces(records []domain.Record) []string {
	return distinct(records, func(r *domain.Record) string {
		return strings.TrimSpace(r.Province)
	})
}

// DistinctDistricts returns district names (the part before " - ") in
// first-appearance order, optionally restricted to one province.
func DistinctDistricts(records []domain.Record, province string) []string {
	province = strings.TrimSpace(province)

	return distinct(records, func(r *domain.Record) string {
		if province != "" && strings.TrimSpace(r.Province) != province {
			return ""
		}

		return r.DistrictName()
	})
}

// DistinctYears returns canonical allocation years in ascending order.
func DistinctYears(records []domain.Record) []string {
	years := distinct(records, func(r *domain.Record) string {
		return r.CanonicalYear()
	})

	sort.Strings(years)

	return years
}

// DistinctHandoverYears returns handover years in ascending order.
func DistinctHandoverYears(records []domain.Record) []string {
	years := distinct(records, func(r *domain.Record) string {
		return strings.TrimSpace(r.YearHandedOver)
	})

	sort.Strings(years)

	return years
}

func distinct(records []domain.Record, key func(*domain.Record) string) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for i := range records {
		k := key(&records[i])
		if k == "" {
			continue
		}

		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		out = append(out, k)
	}

	return out
}
