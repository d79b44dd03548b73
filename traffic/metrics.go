package traffic

import (
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/traffiq/traffiq/engine"
)

// ============================================================================
// METRIC REDUCER — Scalar summaries over the full tables
// ============================================================================

// PedestrianNature is the upstream vocabulary entry for pedestrian collisions.
// Matched exactly, including case and punctuation.
const PedestrianNature = "COLLISION WITH PEDESTRIANS"

// DefaultSinceYear is the first year counted by the annual average.
const DefaultSinceYear = 2020

// Metric keys.
const (
	MetricAnnualAverage    = "annual-average-accidents"
	MetricTotalDeaths      = "total-deaths"
	MetricPedestrianDeaths = "pedestrian-deaths"
	MetricAccidentCount    = "total-accidents"
	MetricMeanLicenseAge   = "mean-license-age"
	MetricFemaleToMale     = "female-to-male-ratio"
)

// AnnualAverageAccidents is the number of accidents since sinceYear divided
// by the number of distinct years they span, rounded to one decimal.
// ok is false when no year remains after filtering.
func AnnualAverageAccidents(records []AccidentRecord, sinceYear int) (float64, bool) {
	view := AccidentView(records)
	recent := engine.Where(view, func(i int) bool {
		r := records[i]
		return r.Year.Valid && r.Year.V >= sinceYear
	})

	years := engine.CountBy(recent, KeyYear)
	if len(years) == 0 {
		return 0, false
	}
	return engine.RoundTo1(float64(recent.Len()) / float64(len(years))), true
}

// TotalDeaths sums death counts; absent counts are 0.
func TotalDeaths(records []AccidentRecord) int {
	return int(engine.SumMeasure(AccidentView(records), KeyDeaths))
}

// PedestrianDeaths sums death counts of pedestrian collisions only:
// deaths are summed per accident nature and the pedestrian group is read out.
func PedestrianDeaths(records []AccidentRecord) int {
	byNature := engine.GroupAndSum(AccidentView(records), KeyAccidentNature, KeyDeaths)
	g, ok := engine.Find(byNature, PedestrianNature)
	if !ok {
		return 0
	}
	return int(g.Value)
}

// TotalAccidentCount is the number of accident records.
func TotalAccidentCount(records []AccidentRecord) int {
	return len(records)
}

// MeanLicenseAge is the mean age at first issue over records with an age.
func MeanLicenseAge(records []LicenseRecord) (float64, bool) {
	ages := engine.MeasureValues(LicenseView(records), KeyAge)
	if len(ages) == 0 {
		return 0, false
	}
	return stat.Mean(ages, nil), true
}

// FemaleToMaleRatio divides female license counts by male ones.
// Accepts both "FEMALE"/"MALE" and "F"/"M", case-insensitively.
func FemaleToMaleRatio(records []LicenseRecord) (float64, bool) {
	var female, male int
	for _, g := range engine.CountBy(LicenseView(records), KeyGender) {
		switch strings.ToUpper(g.Key) {
		case "FEMALE", "F":
			female += g.Count
		case "MALE", "M":
			male += g.Count
		}
	}
	if male == 0 {
		return 0, false
	}
	return float64(female) / float64(male), true
}

// AccidentMetrics builds the four accident metric displays.
func AccidentMetrics(records []AccidentRecord, sinceYear int) []engine.Metric {
	avg, ok := AnnualAverageAccidents(records, sinceYear)
	return []engine.Metric{
		engine.DecimalMetric(MetricAnnualAverage, "Annual average accidents", avg, ok, 1),
		engine.CountMetric(MetricTotalDeaths, "Total deaths", TotalDeaths(records)),
		engine.CountMetric(MetricPedestrianDeaths, "Pedestrian deaths", PedestrianDeaths(records)),
		engine.CountMetric(MetricAccidentCount, "Total accidents", TotalAccidentCount(records)),
	}
}

// LicenseMetrics builds the license metric displays.
func LicenseMetrics(records []LicenseRecord) []engine.Metric {
	mean, okMean := MeanLicenseAge(records)
	ratio, okRatio := FemaleToMaleRatio(records)
	return []engine.Metric{
		engine.DecimalMetric(MetricMeanLicenseAge, "Mean age at first issue", mean, okMean, 2),
		engine.DecimalMetric(MetricFemaleToMale, "Female to male ratio", ratio, okRatio, 2),
	}
}

// UnavailableAccidentMetrics is the placeholder state of the accident metrics.
func UnavailableAccidentMetrics() []engine.Metric {
	return []engine.Metric{
		engine.Unavailable(MetricAnnualAverage, "Annual average accidents"),
		engine.Unavailable(MetricTotalDeaths, "Total deaths"),
		engine.Unavailable(MetricPedestrianDeaths, "Pedestrian deaths"),
		engine.Unavailable(MetricAccidentCount, "Total accidents"),
	}
}

// UnavailableLicenseMetrics is the placeholder state of the license metrics.
func UnavailableLicenseMetrics() []engine.Metric {
	return []engine.Metric{
		engine.Unavailable(MetricMeanLicenseAge, "Mean age at first issue"),
		engine.Unavailable(MetricFemaleToMale, "Female to male ratio"),
	}
}
