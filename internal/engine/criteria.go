package engine

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
)

// Criterion keys accepted by ParseCriteria.
const (
	KeyProvince       = "province"
	KeyDistrict       = "district"
	KeyYearAllocated  = "yearAllocated"
	KeyYearHandedOver = "yearHandedOver"
	KeyProblem        = "problem"
	KeyQuery          = "q"

	// KeyStatusUnderManagement and KeyStatusHandedOver match the dashboard's
	// two status selects. KeyLegalStatus accepts an option from either
	// group and routes it by prefix.
	KeyStatusUnderManagement = "statusBina"
	KeyStatusHandedOver      = "statusSerah"
	KeyLegalStatus           = "legalStatus"
)

// Reasons attached to ignored criteria.
const (
	ReasonUnknownKey    = "unknown key"
	ReasonUnknownOption = "unknown option"
	ReasonConflict      = "conflicts with an earlier value"
)

// keyAliases maps accepted spellings, including the dashboard's Indonesian
// control names, to the canonical criterion key.
var keyAliases = map[string]string{
	"province":       KeyProvince,
	"provinsi":       KeyProvince,
	"district":       KeyDistrict,
	"kabupaten":      KeyDistrict,
	"yearallocated":  KeyYearAllocated,
	"tahunpatan":     KeyYearAllocated,
	"yearhandedover": KeyYearHandedOver,
	"tahunserah":     KeyYearHandedOver,
	"legalstatus":    KeyLegalStatus,
	"status":         KeyLegalStatus,
	"statusbina":     KeyStatusUnderManagement,
	"statusserah":    KeyStatusHandedOver,
	"problem":        KeyProblem,
	"permasalahan":   KeyProblem,
	"q":              KeyQuery,
	"query":          KeyQuery,
	"search":         KeyQuery,
}

var legalStatusAliases = map[string]domain.LegalStatus{
	"blmhpl":  domain.StatusUnderManagementNoTitle,
	"sdhhpl":  domain.StatusUnderManagementHasTitle,
	"tdkhpl":  domain.StatusUnderManagementNotApplicable,
	"skserah": domain.StatusHandedOverDecreeRef,

	"binablmhpl":   domain.StatusUnderManagementNoTitle,
	"binasdhhpl":   domain.StatusUnderManagementHasTitle,
	"binatdkhpl":   domain.StatusUnderManagementNotApplicable,
	"serahsdhhpl":  domain.StatusHandedOverHasTitle,
	"serahskserah": domain.StatusHandedOverDecreeRef,
}

var statusSerahAliases = map[string]domain.LegalStatus{
	"sdhhpl":  domain.StatusHandedOverHasTitle,
	"skserah": domain.StatusHandedOverDecreeRef,
}

var problemAliases = map[string]domain.ProblemCategory{
	"community":   domain.ProblemCommunity,
	"company":     domain.ProblemCompany,
	"forest":      domain.ProblemForestArea,
	"mha":         domain.ProblemMHA,
	"institution": domain.ProblemInstitution,
	"other":       domain.ProblemOther,

	"masyarakat": domain.ProblemCommunity,
	"okumasy":    domain.ProblemCommunity,
	"perusahaan": domain.ProblemCompany,
	"kwshutan":   domain.ProblemForestArea,
	"hutan":      domain.ProblemForestArea,
	"instansi":   domain.ProblemInstitution,
	"lainlain":   domain.ProblemOther,
}

// Ignored describes a criterion that was dropped while parsing.
type Ignored struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Err returns the diagnostic as an error wrapping errors.ErrInvalidFilterCriterion.
func (i Ignored) Err() error {
	return fmt.Errorf("%w: %s=%q: %s", errors.ErrInvalidFilterCriterion, i.Key, i.Value, i.Reason)
}

// ParseCriteria builds FilterCriteria from request parameters.
// Empty values mean "no constraint". Unknown keys and option values are
// dropped and reported; they never narrow the result.
func ParseCriteria(values url.Values) (domain.FilterCriteria, []Ignored) {
	var (
		c       domain.FilterCriteria
		ignored []Ignored
	)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, raw := range keys {
		for _, v := range values[raw] {
			if ig, ok := applyCriterion(&c, raw, v); !ok {
				ignored = append(ignored, ig)
			}
		}
	}

	return c, ignored
}

// Values renders criteria back into request parameters using canonical keys.
func Values(c domain.FilterCriteria) url.Values {
	v := url.Values{}

	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}

	set(KeyProvince, c.Province)
	set(KeyDistrict, c.District)
	set(KeyYearAllocated, c.YearAllocated)
	set(KeyYearHandedOver, c.YearHandedOver)
	set(KeyStatusUnderManagement, string(c.StatusUnderManagement))
	set(KeyStatusHandedOver, string(c.StatusHandedOver))
	set(KeyProblem, string(c.Problem))
	set(KeyQuery, c.Query)

	return v
}

func applyCriterion(c *domain.FilterCriteria, rawKey, rawValue string) (Ignored, bool) {
	value := strings.TrimSpace(rawValue)
	if value == "" {
		return Ignored{}, true
	}

	key, known := keyAliases[strings.ToLower(strings.TrimSpace(rawKey))]
	if !known {
		return Ignored{Key: rawKey, Value: rawValue, Reason: ReasonUnknownKey}, false
	}

	switch key {
	case KeyProvince:
		return assignText(&c.Province, rawKey, value)
	case KeyDistrict:
		return assignText(&c.District, rawKey, value)
	case KeyYearAllocated:
		return assignText(&c.YearAllocated, rawKey, value)
	case KeyYearHandedOver:
		return assignText(&c.YearHandedOver, rawKey, value)
	case KeyQuery:
		return assignText(&c.Query, rawKey, value)
	case KeyProblem:
		p, ok := parseProblem(value)
		if !ok {
			return Ignored{Key: rawKey, Value: rawValue, Reason: ReasonUnknownOption}, false
		}

		return assignOption(&c.Problem, p, rawKey, value)
	default:
		s, ok := parseLegalStatus(key, value)
		if !ok {
			return Ignored{Key: rawKey, Value: rawValue, Reason: ReasonUnknownOption}, false
		}

		if s.UnderManagement() {
			return assignOption(&c.StatusUnderManagement, s, rawKey, value)
		}

		return assignOption(&c.StatusHandedOver, s, rawKey, value)
	}
}

func assignText(dst *string, key, value string) (Ignored, bool) {
	return assignOption(dst, value, key, value)
}

func assignOption[T ~string](dst *T, v T, key, raw string) (Ignored, bool) {
	if *dst != "" && *dst != v {
		return Ignored{Key: key, Value: raw, Reason: ReasonConflict}, false
	}

	*dst = v

	return Ignored{}, true
}

func parseLegalStatus(key, value string) (domain.LegalStatus, bool) {
	norm := normalizeOption(value)

	s, ok := legalStatusAliases[norm]
	if key == KeyStatusHandedOver {
		s, ok = statusSerahAliases[norm]
		if !ok {
			s, ok = legalStatusAliases[norm]
		}
	}

	if !ok {
		return "", false
	}

	switch key {
	case KeyStatusUnderManagement:
		ok = s.UnderManagement()
	case KeyStatusHandedOver:
		ok = s.HandedOver()
	}

	return s, ok
}

func parseProblem(value string) (domain.ProblemCategory, bool) {
	for _, opt := range domain.ProblemOptions() {
		if string(opt.Value) == value {
			return opt.Value, true
		}
	}

	p, ok := problemAliases[normalizeOption(value)]

	return p, ok
}

// normalizeOption lowercases and strips separators so "kwsHutan",
// "kws_hutan" and "Lain-lain" compare equal to their alias keys.
func normalizeOption(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		default:
			return r
		}
	}, strings.ToLower(s))
}
