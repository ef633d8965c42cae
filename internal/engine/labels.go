package engine

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	filterSummaryTitle = "Filter Data"
	noYearData         = "Tidak ada data"
)

// Summary holds the display strings of the dashboard summary cards.
type Summary struct {
	Title      string `json:"title"`
	Empty      bool   `json:"empty"`
	Locations  string `json:"locations"`
	Households string `json:"households"`
	TitleDeeds string `json:"titleDeeds"`
	Cases      string `json:"cases"`
	Provinces  string `json:"provinces"`
	YearRange  string `json:"yearRange"`
}

var printer = message.NewPrinter(language.Indonesian)

// FormatCount renders n with Indonesian digit grouping, e.g. 12.345.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FilterSummary renders the filter header. It shows "N dari M lokasi" only
// while a filter narrows the set.
func FilterSummary(filtered, total int) string {
	if filtered == total {
		return filterSummaryTitle
	}

	return printer.Sprintf("%s (%d dari %d lokasi)", filterSummaryTitle, filtered, total)
}

// YearRangeLabel renders the year span or the no-data placeholder.
func YearRangeLabel(y YearRange) string {
	if !y.Valid {
		return noYearData
	}

	return y.String()
}

// Summarize builds the summary cards for a filtered result out of total records.
func Summarize(st Stats, total int) Summary {
	return Summary{
		Title:      FilterSummary(st.LocationCount, total),
		Empty:      st.LocationCount == 0,
		Locations:  FormatCount(st.LocationCount),
		Households: FormatCount(st.TotalHouseholdCount),
		TitleDeeds: FormatCount(st.TotalTitleDeedTarget),
		Cases:      FormatCount(st.TotalCaseCount),
		Provinces:  FormatCount(st.ProvinceCount),
		YearRange:  YearRangeLabel(st.YearRange),
	}
}
