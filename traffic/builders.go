package traffic

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/traffiq/traffiq/engine"
)

// ============================================================================
// CHART SERIES BUILDERS — (records, selection value) → ChartConfig
// ============================================================================
// Every builder is a pure function: same input, same chart. Nothing is
// cached between calls; the controller rebuilds on every redraw.
// ============================================================================

// ChartID identifies a chart region on the dashboard.
type ChartID string

const (
	ChartSeverityByCategory   ChartID = "severity-by-category"
	ChartAccidentAgeScatter   ChartID = "accident-age-scatter"
	ChartZonesByYear          ChartID = "zones-by-year"
	ChartYearlyTrend          ChartID = "yearly-trend"
	ChartTopZones             ChartID = "top-zones"
	ChartLicenseByCategory    ChartID = "license-by-category"
	ChartLicenseAgeBubble     ChartID = "license-age-bubble"
	ChartAnnualLicenseByMonth ChartID = "annual-license-by-month"
)

// Perpetrator ages outside this band are data-entry noise.
const (
	MinAccidentAge = 0
	MaxAccidentAge = 90
)

// UnknownZone is the zone assigned to rows with a non-numeric ZONE.
const UnknownZone = "Unknown"

// DefaultTopZones is how many zones the top-zone trend shows.
const DefaultTopZones = 10

var monthTicks = []engine.Tick{
	{Value: 1, Label: "Jan"}, {Value: 2, Label: "Feb"}, {Value: 3, Label: "Mar"},
	{Value: 4, Label: "Apr"}, {Value: 5, Label: "May"}, {Value: 6, Label: "Jun"},
	{Value: 7, Label: "Jul"}, {Value: 8, Label: "Aug"}, {Value: 9, Label: "Sep"},
	{Value: 10, Label: "Oct"}, {Value: 11, Label: "Nov"}, {Value: 12, Label: "Dec"},
}

// MonthTicks returns the fixed Jan..Dec tick domain.
func MonthTicks() []engine.Tick {
	out := make([]engine.Tick, len(monthTicks))
	copy(out, monthTicks)
	return out
}

// ============================================================================
// ACCIDENT CHARTS
// ============================================================================

// SeverityByCategory stacks accident severities per category value:
// one series per category value, x = severity labels.
func SeverityByCategory(records []AccidentRecord, category Category) *engine.ChartConfig {
	groups := engine.GroupAndCount(AccidentView(records), category.Key(), KeySeverity)
	return engine.BuildChart(engine.KindStackedBar, groups,
		engine.WithTitle("Accident Severity by "+category.Label()),
		engine.WithXAxis("Severity", engine.AxisCategory),
		engine.WithYAxis("Number of Accidents"),
		engine.WithZeroFill(true),
	)
}

// AccidentAges derives perpetrator ages for accidents of one year, keeping
// only MinAccidentAge..MaxAccidentAge. Records without a birth year are skipped.
func AccidentAges(records []AccidentRecord, year int) []int {
	ages := make([]int, 0)
	for _, r := range records {
		if !r.Year.Valid || r.Year.V != year || !r.BirthYear.Valid {
			continue
		}
		age := year - r.BirthYear.V
		if age < MinAccidentAge || age > MaxAccidentAge {
			continue
		}
		ages = append(ages, age)
	}
	return ages
}

// AccidentAgeScatter counts accidents per perpetrator age in one year.
// Marker size equals the count at that age.
func AccidentAgeScatter(records []AccidentRecord, year int) *engine.ChartConfig {
	ages := AccidentAges(records, year)
	groups := engine.CountBy(ageAdapter.Bind(ages), KeyAge)
	return engine.BuildChart(engine.KindSizedScatter, groups,
		engine.WithTitle(fmt.Sprintf("Age Distribution of Accident Perpetrators (%d)", year)),
		engine.WithSeriesName(fmt.Sprintf("Year %d", year)),
		engine.WithXAxis("Age", engine.AxisNumeric),
		engine.WithYAxis("Number of Accidents"),
		engine.WithAnnotation(meanAgeAnnotation(ages, 1)),
		engine.WithLegend(false),
	)
}

// ZoneAccidents counts accidents per zone in one year, busiest zone first.
// The Unknown zone is left out.
func ZoneAccidents(records []AccidentRecord, year int) *engine.ChartConfig {
	view := engine.Exclude(yearView(AccidentView(records), year), KeyZone, UnknownZone)
	groups := engine.CountBy(view, KeyZone)
	return engine.BuildChart(engine.KindStackedBar, groups,
		engine.WithTitle(fmt.Sprintf("Accidents by Zone (%d)", year)),
		engine.WithSeriesName("Accidents"),
		engine.WithXAxis("Zone", engine.AxisCategory),
		engine.WithPointOrder(engine.SortValueDesc),
		engine.WithYAxis("Number of Accidents"),
		engine.WithLegend(false),
	)
}

// YearlyAccidentTrend counts accidents per year over the records matching
// filters. Active filters are named in the title.
func YearlyAccidentTrend(records []AccidentRecord, filters engine.Filters) *engine.ChartConfig {
	view := engine.ApplyFilters(AccidentView(records), filters)
	groups := engine.CountBy(view, KeyYear)
	return engine.BuildChart(engine.KindLine, groups,
		engine.WithTitle("Yearly Accident Trend"+filterSuffix(filters)),
		engine.WithSeriesName("Accidents"),
		engine.WithXAxis("Year", engine.AxisNumeric),
		engine.WithYAxis("Number of Accidents"),
		engine.WithLegend(false),
	)
}

// TopZonesByYear draws one line per zone for the n zones with the most
// accidents among the records matching filters, busiest first. The title
// counts the zones actually drawn.
func TopZonesByYear(records []AccidentRecord, n int, filters engine.Filters) *engine.ChartConfig {
	view := engine.ApplyFilters(AccidentView(records), filters)
	totals := engine.CountBy(view, KeyZone)
	engine.SortGroups(totals, engine.SortValueDesc)
	if n > 0 && len(totals) > n {
		totals = totals[:n]
	}

	top := engine.ApplyFilters(view, engine.Filters{
		Dimensions: map[string][]string{KeyZone: engine.Keys(totals)},
	})
	byZone := engine.GroupAndCount(top, KeyZone, KeyYear)

	ranked := make([]engine.Group, 0, len(byZone))
	for _, key := range engine.Keys(totals) {
		if g, ok := engine.Find(byZone, key); ok {
			ranked = append(ranked, g)
		}
	}

	return engine.BuildChart(engine.KindLine, ranked,
		engine.WithTitle(fmt.Sprintf("Yearly Accidents in Top %d Zones", len(totals))+filterSuffix(filters)),
		engine.WithXAxis("Year", engine.AxisNumeric),
		engine.WithYAxis("Number of Accidents"),
	)
}

// filterDimensions fixes the order active filters are listed in titles.
var filterDimensions = []string{KeySeverity, KeyNationalityGroup}

// filterSuffix renders active filters as " (Severity: FATAL; Nationality group: QATARI)".
func filterSuffix(filters engine.Filters) string {
	var parts []string
	for _, dim := range filterDimensions {
		if filters.HasFilter(dim) {
			parts = append(parts, engine.LabelForDimension(dim)+": "+strings.Join(filters.Dimensions[dim], ", "))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, "; ") + ")"
}

// ============================================================================
// LICENSE CHARTS
// ============================================================================

// LicenseByCategory counts licenses issued in one year per category value
// and calendar day: one line per category value.
func LicenseByCategory(records []LicenseRecord, category Category, year int) *engine.ChartConfig {
	view := yearView(LicenseView(records), year)
	groups := engine.GroupAndCount(view, category.Key(), KeyIssueDay)
	return engine.BuildChart(engine.KindLine, groups,
		engine.WithTitle(fmt.Sprintf("License Issued by %s in %d", category.Label(), year)),
		engine.WithXAxis("Issue Date", engine.AxisDate),
		engine.WithYAxis("Number of Licenses"),
	)
}

// LicenseAgeBubble counts licenses per age at first issue.
// Marker size equals the count at that age.
func LicenseAgeBubble(records []LicenseRecord) *engine.ChartConfig {
	view := LicenseView(records)
	groups := engine.CountBy(view, KeyAge)

	ages := engine.MeasureValues(view, KeyAge)
	annotation := ""
	if len(ages) > 0 {
		annotation = fmt.Sprintf("Mean Age: %.2f", stat.Mean(ages, nil))
	}

	return engine.BuildChart(engine.KindSizedScatter, groups,
		engine.WithTitle("Age at License Issue"),
		engine.WithSeriesName("Licenses"),
		engine.WithXAxis("Age at License Issue", engine.AxisNumeric),
		engine.WithYAxis("Number of Licenses Issued"),
		engine.WithAnnotation(annotation),
		engine.WithLegend(false),
	)
}

// AnnualLicenseByMonth counts licenses per month, one line per year.
// Months without licenses are gaps, not zeros; the tick domain is always Jan..Dec.
func AnnualLicenseByMonth(records []LicenseRecord) *engine.ChartConfig {
	groups := engine.GroupAndCount(LicenseView(records), KeyYear, KeyMonth)
	return engine.BuildChart(engine.KindLine, groups,
		engine.WithTitle("Annual License Issue"),
		engine.WithXAxis("Month", engine.AxisNumeric),
		engine.WithXTicks(MonthTicks()),
		engine.WithYAxis("Number of Licenses Issued"),
	)
}

func meanAgeAnnotation(ages []int, decimals int) string {
	if len(ages) == 0 {
		return ""
	}
	values := make([]float64, len(ages))
	for i, a := range ages {
		values[i] = float64(a)
	}
	return fmt.Sprintf("Mean Age: %.*f", decimals, stat.Mean(values, nil))
}
