// Package export writes and reads the dashboard's tabular exchange formats:
// delimited text (CSV) and Excel workbooks.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
)

// File extensions and content types of the export formats.
const (
	ExtCSV          = "csv"
	ExtXLSX         = "xlsx"
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	fileNamePrefix = "data_transmigrasi_"
	fileDateLayout = "2006-01-02"
)

// FileName returns the download name for an export made at t.
func FileName(ext string, t time.Time) string {
	return fileNamePrefix + t.Format(fileDateLayout) + "." + ext
}

// WriteCSV writes records with a header row. Text cells are always quoted
// with embedded quotes doubled; counts and flags are written bare.
func WriteCSV(w io.Writer, records []domain.Record) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(Headers(), ",") + "\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	cells := make([]string, len(columns))

	for i := range records {
		for j, c := range columns {
			cells[j] = formatCell(c, &records[i])
		}

		if _, err := bw.WriteString(strings.Join(cells, ",") + "\n"); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

func formatCell(c column, r *domain.Record) string {
	switch v := c.value(r).(type) {
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	default:
		return ""
	}
}

// ImportResult is the outcome of reading an exchange file.
type ImportResult struct {
	Records []domain.Record
	// Skipped counts rows without id, province or district, and repeated ids.
	Skipped int
}

// ReadCSV parses a file produced by WriteCSV. Columns are matched by header
// name, so files with reordered or missing columns are accepted.
func ReadCSV(r io.Reader) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: parse csv: %v", errors.ErrInvalidInput, err)
	}

	return fromRows(rows)
}

func fromRows(rows [][]string) (ImportResult, error) {
	if len(rows) == 0 {
		return ImportResult{}, fmt.Errorf("%w: missing header row", errors.ErrInvalidInput)
	}

	idx := columnIndex(rows[0])
	if !hasIdentityColumns(idx) {
		return ImportResult{}, fmt.Errorf("%w: header must name %s, %s and %s",
			errors.ErrInvalidInput, HeaderID, HeaderProvince, HeaderDistrict)
	}

	res := ImportResult{Records: []domain.Record{}}
	seen := make(map[string]struct{})

	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}

		rec, ok := recordFromRow(idx, row)
		if !ok {
			res.Skipped++

			continue
		}

		if _, dup := seen[rec.ID]; dup {
			res.Skipped++

			continue
		}

		seen[rec.ID] = struct{}{}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}

func hasIdentityColumns(idx map[int]column) bool {
	found := 0

	for _, c := range idx {
		switch c.header {
		case HeaderID, HeaderProvince, HeaderDistrict:
			found++
		}
	}

	return found == 3
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
