package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	errs "github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/records"
)

const (
	errListCases  = "list cases: %w"
	errCreateCase = "create case %s: %w"
	errUpdateCase = "update case %s: %w"
	errDeleteCase = "delete case %s: %w"
)

// caseColumns are the writable data columns of the cases table, in insert order.
var caseColumns = []string{
	records.ColumnProvince,
	records.ColumnDistrict,
	records.ColumnPattern,
	records.ColumnYearAllocated,
	records.ColumnYearHandedOver,
	records.ColumnHouseholdCount,
	records.ColumnTitleDeedTarget,
	records.ColumnCaseCount,
	records.ColumnHPL,
	records.ColumnStatusBinaBlmHPL,
	records.ColumnStatusBinaSdhHPL,
	records.ColumnStatusBinaTdkHPL,
	records.ColumnStatusSerahSdhHPL,
	records.ColumnStatusSerahSKSerah,
	records.ColumnProblemCommunity,
	records.ColumnProblemCompany,
	records.ColumnProblemForestArea,
	records.ColumnProblemMHA,
	records.ColumnProblemInstitution,
	records.ColumnProblemOther,
	records.ColumnProblemDescription,
	records.ColumnFollowUpAction,
	records.ColumnRecommendation,
}

var (
	listCasesSQL  = buildListSQL()
	insertCaseSQL = buildInsertSQL()
	updateCaseSQL = buildUpdateSQL()
	deleteCaseSQL = "DELETE FROM " + tableCases + " WHERE " + records.ColumnID + " = $1"
)

// Documents returns every row of the cases table as a column-keyed document,
// ordered by province and district.
func (db *DB) Documents(ctx context.Context) ([]domain.Document, error) {
	rows, err := db.Pool.Query(ctx, listCasesSQL)
	if err != nil {
		return nil, fmt.Errorf(errListCases, err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf(errListCases, err)
	}

	docs := make([]domain.Document, len(maps))
	for i, m := range maps {
		docs[i] = domain.Document(m)
	}

	return docs, nil
}

// CreateRecord inserts rec and returns its id. An empty id is replaced with a new UUID.
func (db *DB) CreateRecord(ctx context.Context, rec domain.Record) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	args := append([]any{id}, caseArgs(rec)...)
	args = append(args, nullableText(rec.CreatedBy))

	if _, err := db.Pool.Exec(ctx, insertCaseSQL, args...); err != nil {
		return "", fmt.Errorf(errCreateCase, id, err)
	}

	return id, nil
}

// UpdateRecord overwrites the data columns of the row with rec.ID.
func (db *DB) UpdateRecord(ctx context.Context, rec domain.Record) error {
	args := append([]any{rec.ID}, caseArgs(rec)...)
	args = append(args, nullableText(rec.UpdatedBy))

	tag, err := db.Pool.Exec(ctx, updateCaseSQL, args...)
	if err != nil {
		return fmt.Errorf(errUpdateCase, rec.ID, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf(errUpdateCase, rec.ID, errs.ErrNotFound)
	}

	return nil
}

// DeleteRecord removes the row with the given id.
func (db *DB) DeleteRecord(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, deleteCaseSQL, id)
	if err != nil {
		return fmt.Errorf(errDeleteCase, id, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf(errDeleteCase, id, errs.ErrNotFound)
	}

	return nil
}

// caseArgs returns the values for caseColumns, in order.
func caseArgs(rec domain.Record) []any {
	doc := records.ToDocument(records.Sanitize(rec))
	args := make([]any, len(caseColumns))

	for i, col := range caseColumns {
		v := doc[col]
		if s, ok := v.(string); ok {
			v = nullableText(s)
		}

		args[i] = v
	}

	return args
}

func nullableText(s string) any {
	s = SanitizeUTF8(s)
	if s == "" {
		return nil
	}

	return s
}

func buildListSQL() string {
	return "SELECT * FROM " + tableCases + " ORDER BY " +
		records.ColumnProvince + ", " + records.ColumnDistrict + ", " + records.ColumnID
}

func buildInsertSQL() string {
	cols := make([]string, 0, len(caseColumns)+2)
	cols = append(cols, records.ColumnID)
	cols = append(cols, caseColumns...)
	cols = append(cols, records.ColumnCreatedBy)

	return "INSERT INTO " + tableCases + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		placeholders(1, len(cols)) + ")"
}

func buildUpdateSQL() string {
	sets := make([]string, 0, len(caseColumns)+2)
	for i, col := range caseColumns {
		sets = append(sets, col+" = $"+strconv.Itoa(i+2))
	}

	sets = append(sets,
		records.ColumnUpdatedBy+" = $"+strconv.Itoa(len(caseColumns)+2),
		records.ColumnUpdatedAt+" = now()",
	)

	return "UPDATE " + tableCases + " SET " + strings.Join(sets, ", ") +
		" WHERE " + records.ColumnID + " = $1"
}

// placeholders returns "$from, ..., $(from+n-1)".
func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = "$" + strconv.Itoa(from+i)
	}

	return strings.Join(ps, ", ")
}
