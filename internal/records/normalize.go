// Package records maps raw stored documents to the canonical domain.Record
// shape and back. Every backend reads and writes through this package so
// downstream code sees a single field naming convention.
package records

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
)

const errFmtMissingField = "%w: missing %s"

// Normalize converts a raw document into a Record.
// camelCase keys win over snake_case keys when both are present. Absent text
// fields become "", absent counts 0 and absent flags false. A document
// without an id yields an error wrapping errors.ErrMalformedRecord.
func Normalize(doc domain.Document) (domain.Record, error) {
	id := textField(doc, keyID)
	if id == "" {
		return domain.Record{}, fmt.Errorf(errFmtMissingField, errors.ErrMalformedRecord, ColumnID)
	}

	return domain.Record{
		ID:             id,
		Province:       textField(doc, keyProvince),
		District:       textField(doc, keyDistrict),
		Pattern:        textField(doc, keyPattern),
		YearAllocated:  textField(doc, keyYearAllocated),
		YearHandedOver: textField(doc, keyYearHandedOver),

		HouseholdCount:  countField(doc, keyHouseholdCount),
		TitleDeedTarget: countField(doc, keyTitleDeedTarget),
		CaseCount:       countField(doc, keyCaseCount),
		HPL:             textField(doc, keyHPL),

		StatusUnderManagementNoTitle:       flagField(doc, keyStatusBinaBlmHPL),
		StatusUnderManagementHasTitle:      flagField(doc, keyStatusBinaSdhHPL),
		StatusUnderManagementNotApplicable: flagField(doc, keyStatusBinaTdkHPL),
		StatusHandedOverHasTitle:           flagField(doc, keyStatusSerahSdhHPL),
		StatusHandedOverDecreeRef:          decreeField(doc, keyStatusSerahSKSerah),

		ProblemCommunity:   flagField(doc, keyProblemCommunity),
		ProblemCompany:     flagField(doc, keyProblemCompany),
		ProblemForestArea:  flagField(doc, keyProblemForestArea),
		ProblemMHA:         flagField(doc, keyProblemMHA),
		ProblemInstitution: flagField(doc, keyProblemInstitution),
		ProblemOther:       flagField(doc, keyProblemOther),

		ProblemDescription: textField(doc, keyProblemDescription),
		FollowUpAction:     textField(doc, keyFollowUpAction),
		Recommendation:     textField(doc, keyRecommendation),

		CreatedBy: textField(doc, keyCreatedBy),
		UpdatedBy: textField(doc, keyUpdatedBy),
		CreatedAt: timeField(doc, keyCreatedAt),
		UpdatedAt: timeField(doc, keyUpdatedAt),
	}, nil
}

// ToDocument converts a Record into a storage document keyed by snake_case
// column names. The id is not included; backends address documents by id.
func ToDocument(r domain.Record) domain.Document {
	doc := domain.Document{
		ColumnProvince:           r.Province,
		ColumnDistrict:           r.District,
		ColumnPattern:            r.Pattern,
		ColumnYearAllocated:      r.YearAllocated,
		ColumnYearHandedOver:     r.YearHandedOver,
		ColumnHouseholdCount:     r.HouseholdCount,
		ColumnTitleDeedTarget:    r.TitleDeedTarget,
		ColumnCaseCount:          r.CaseCount,
		ColumnHPL:                r.HPL,
		ColumnStatusBinaBlmHPL:   r.StatusUnderManagementNoTitle,
		ColumnStatusBinaSdhHPL:   r.StatusUnderManagementHasTitle,
		ColumnStatusBinaTdkHPL:   r.StatusUnderManagementNotApplicable,
		ColumnStatusSerahSdhHPL:  r.StatusHandedOverHasTitle,
		ColumnStatusSerahSKSerah: r.StatusHandedOverDecreeRef,
		ColumnProblemCommunity:   r.ProblemCommunity,
		ColumnProblemCompany:     r.ProblemCompany,
		ColumnProblemForestArea:  r.ProblemForestArea,
		ColumnProblemMHA:         r.ProblemMHA,
		ColumnProblemInstitution: r.ProblemInstitution,
		ColumnProblemOther:       r.ProblemOther,
		ColumnProblemDescription: r.ProblemDescription,
		ColumnFollowUpAction:     r.FollowUpAction,
		ColumnRecommendation:     r.Recommendation,
	}

	if r.CreatedBy != "" {
		doc[ColumnCreatedBy] = r.CreatedBy
	}

	if r.UpdatedBy != "" {
		doc[ColumnUpdatedBy] = r.UpdatedBy
	}

	return doc
}

// Sanitize cleans text fields with CleanText and clamps negative counts to zero.
func Sanitize(r domain.Record) domain.Record {
	for _, f := range []*string{
		&r.ID, &r.Province, &r.District, &r.Pattern, &r.YearAllocated, &r.YearHandedOver,
		&r.HPL, &r.StatusHandedOverDecreeRef, &r.ProblemDescription, &r.FollowUpAction, &r.Recommendation,
	} {
		*f = CleanText(*f)
	}

	r.HouseholdCount = max(r.HouseholdCount, 0)
	r.TitleDeedTarget = max(r.TitleDeedTarget, 0)
	r.CaseCount = max(r.CaseCount, 0)

	return r
}

// CleanText converts CRLF and CR line breaks to LF and trims surrounding
// whitespace. Stored text always has this form.
func CleanText(s string) string {
	if strings.IndexByte(s, '\r') >= 0 {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}

	return strings.TrimSpace(s)
}

// lookup returns the first non-nil value stored under any of the field's keys.
func lookup(doc domain.Document, keys fieldKeys) (any, bool) {
	for _, k := range [...]string{keys.canonical, keys.legacy, keys.snake} {
		if v, ok := doc[k]; ok && v != nil {
			return v, true
		}
	}

	return nil, false
}

func textField(doc domain.Document, keys fieldKeys) string {
	v, ok := lookup(doc, keys)
	if !ok {
		return ""
	}

	switch t := v.(type) {
	case string:
		return CleanText(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func countField(doc domain.Document, keys fieldKeys) int {
	v, ok := lookup(doc, keys)
	if !ok {
		return 0
	}

	n := toInt(v)
	if n < 0 {
		return 0
	}

	return n
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float32:
		return floatToInt(float64(t))
	case float64:
		return floatToInt(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}

		return floatToInt(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}

		return floatToInt(f)
	default:
		return 0
	}
}

func floatToInt(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return int(f)
}

func flagField(doc domain.Document, keys fieldKeys) bool {
	v, ok := lookup(doc, keys)
	if !ok {
		return false
	}

	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))

		return err == nil && b
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return false
	}
}

// decreeField reads the decree reference. Older documents store a boolean;
// true maps to a placeholder reference so the flag stays truthy.
func decreeField(doc domain.Document, keys fieldKeys) string {
	v, ok := lookup(doc, keys)
	if !ok {
		return ""
	}

	if b, isBool := v.(bool); isBool {
		if b {
			return DecreeRefPresent
		}

		return ""
	}

	return textField(doc, keys)
}

// DecreeRefPresent stands in for a decree reference recorded only as a flag.
const DecreeRefPresent = "ada"

func timeField(doc domain.Document, keys fieldKeys) time.Time {
	v, ok := lookup(doc, keys)
	if !ok {
		return time.Time{}
	}

	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}
		}

		return parsed.UTC()
	default:
		return time.Time{}
	}
}
