package engine

import "github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"

// Dataset labels used by the dashboard charts.
const (
	DatasetLocations   = "Jumlah Lokasi"
	DatasetHouseholds  = "Total KK"
	DatasetTitleDeeds  = "Total SHM"
	DatasetAllocated   = "Tahun Patan"
	DatasetHandedOver  = "Tahun Serah"
	DatasetCount       = "Jumlah"
	chartTitleProblems = "Distribusi Permasalahan Tanah"
	chartTitleProvince = "Kinerja per Provinsi"
	chartTitleTimeline = "Timeline Proyek"
	chartTitleStatus   = "Distribusi Status"
)

// Dataset is one named value series of a chart.
type Dataset struct {
	Label  string `json:"label"`
	Values []int  `json:"values"`
}

// Chart is a chart-ready label/value structure. Drawing happens client side.
type Chart struct {
	Title    string    `json:"title"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Charts bundles every dashboard chart.
type Charts struct {
	Problems  Chart `json:"problems"`
	Provinces Chart `json:"provinces"`
	Timeline  Chart `json:"timeline"`
	Status    Chart `json:"status"`
}

// BuildCharts derives all chart series from aggregated stats.
func BuildCharts(st Stats) Charts {
	return Charts{
		Problems:  ProblemChart(st),
		Provinces: ProvinceChart(st),
		Timeline:  TimelineChart(st),
		Status:    StatusChart(st),
	}
}

// ProblemChart is the problem-category distribution.
func ProblemChart(st Stats) Chart {
	opts := domain.ProblemOptions()
	labels := make([]string, len(opts))
	values := make([]int, len(opts))

	for i, o := range opts {
		labels[i] = o.Label
		values[i] = st.ByProblem[o.Value]
	}

	return Chart{
		Title:    chartTitleProblems,
		Labels:   labels,
		Datasets: []Dataset{{Label: DatasetCount, Values: values}},
	}
}

// ProvinceChart shows locations, households and title-deed targets per province.
func ProvinceChart(st Stats) Chart {
	n := len(st.ByProvince)
	labels := make([]string, n)
	locations := make([]int, n)
	households := make([]int, n)
	deeds := make([]int, n)

	for i, p := range st.ByProvince {
		labels[i] = p.Province
		locations[i] = p.Locations
		households[i] = p.Households
		deeds[i] = p.TitleDeedTarget
	}

	return Chart{
		Title:  chartTitleProvince,
		Labels: labels,
		Datasets: []Dataset{
			{Label: DatasetLocations, Values: locations},
			{Label: DatasetHouseholds, Values: households},
			{Label: DatasetTitleDeeds, Values: deeds},
		},
	}
}

// TimelineChart shows allocations and handovers per year.
func TimelineChart(st Stats) Chart {
	n := len(st.Timeline)
	labels := make([]string, n)
	allocated := make([]int, n)
	handedOver := make([]int, n)

	for i, p := range st.Timeline {
		labels[i] = p.Year
		allocated[i] = p.Allocated
		handedOver[i] = p.HandedOver
	}

	return Chart{
		Title:  chartTitleTimeline,
		Labels: labels,
		Datasets: []Dataset{
			{Label: DatasetAllocated, Values: allocated},
			{Label: DatasetHandedOver, Values: handedOver},
		},
	}
}

// StatusChart is the legal-status distribution.
func StatusChart(st Stats) Chart {
	opts := domain.LegalStatusOptions()
	labels := make([]string, len(opts))
	values := make([]int, len(opts))

	for i, o := range opts {
		labels[i] = o.Label
		values[i] = st.ByLegalStatus[o.Value]
	}

	return Chart{
		Title:    chartTitleStatus,
		Labels:   labels,
		Datasets: []Dataset{{Label: DatasetCount, Values: values}},
	}
}
