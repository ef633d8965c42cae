package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/engine"
)

// Workbook sheet names.
const (
	SheetData    = "Data"
	SheetSummary = "Ringkasan"

	defaultSheet = "Sheet1"
	columnWidth  = 22
)

var summaryProvinceHeader = []any{"Provinsi", "Jumlah Lokasi", "Total KK", "Total SHM", "Total Kasus"}

// WriteXLSX writes a workbook with a data sheet in the CSV column layout and
// a summary sheet built from stats.
func WriteXLSX(w io.Writer, records []domain.Record, stats engine.Stats) error {
	f := excelize.NewFile()

	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(defaultSheet, SheetData); err != nil {
		return fmt.Errorf("rename data sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeDataSheet(f, records, bold); err != nil {
		return err
	}

	if err := writeSummarySheet(f, stats, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}

func writeDataSheet(f *excelize.File, records []domain.Record, headerStyle int) error {
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.header
	}

	if err := setRow(f, SheetData, 1, header); err != nil {
		return err
	}

	if err := f.SetRowStyle(SheetData, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style data header: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return fmt.Errorf("resolve last column: %w", err)
	}

	if err := f.SetColWidth(SheetData, "A", lastCol, columnWidth); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	row := make([]any, len(columns))

	for i := range records {
		for j, c := range columns {
			row[j] = c.value(&records[i])
		}

		if err := setRow(f, SheetData, i+2, row); err != nil {
			return err
		}
	}

	return nil
}

func writeSummarySheet(f *excelize.File, st engine.Stats, headerStyle int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	totals := [][]any{
		{"Jumlah Lokasi", st.LocationCount},
		{"Total KK", st.TotalHouseholdCount},
		{"Total SHM", st.TotalTitleDeedTarget},
		{"Total Kasus", st.TotalCaseCount},
		{"Jumlah Provinsi", st.ProvinceCount},
		{"Rentang Tahun", engine.YearRangeLabel(st.YearRange)},
	}

	for i, r := range totals {
		if err := setRow(f, SheetSummary, i+1, r); err != nil {
			return err
		}
	}

	headerRow := len(totals) + 2

	if err := setRow(f, SheetSummary, headerRow, summaryProvinceHeader); err != nil {
		return err
	}

	if err := f.SetRowStyle(SheetSummary, headerRow, headerRow, headerStyle); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}

	for i, p := range st.ByProvince {
		r := []any{p.Province, p.Locations, p.Households, p.TitleDeedTarget, p.Cases}
		if err := setRow(f, SheetSummary, headerRow+1+i, r); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetSummary, "A", "E", columnWidth); err != nil {
		return fmt.Errorf("set summary column width: %w", err)
	}

	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("resolve cell for row %d: %w", row, err)
	}

	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}

	return nil
}

// ReadXLSX parses the data sheet of a workbook produced by WriteXLSX.
func ReadXLSX(r io.Reader) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: open workbook: %v", errors.ErrInvalidInput, err)
	}

	defer func() {
		_ = f.Close()
	}()

	sheet := SheetData
	if idx, _ := f.GetSheetIndex(SheetData); idx < 0 {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: read sheet %s: %v", errors.ErrInvalidInput, sheet, err)
	}

	return fromRows(rows)
}
