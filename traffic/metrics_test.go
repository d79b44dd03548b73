package traffic

import (
	"math"
	"testing"
	"time"
)

// ============================================================================
// TEST DATA
// ============================================================================

func accidentsByYear(counts map[int]int) []AccidentRecord {
	var out []AccidentRecord
	for year, n := range counts {
		for i := 0; i < n; i++ {
			out = append(out, AccidentRecord{Year: Some(year), Severity: "MINOR"})
		}
	}
	return out
}

func sampleAccidents() []AccidentRecord {
	return []AccidentRecord{
		{Year: Some(2021), DeathCount: Some(1), AccidentNature: PedestrianNature, NationalityGroup: "QATARI", Severity: "SEVERE", BirthYear: Some(1998), Zone: "12"},
		{Year: Some(2021), DeathCount: Some(0), AccidentNature: "COLLISION", NationalityGroup: "ASIAN", Severity: "MINOR", BirthYear: Some(1985), Zone: "12"},
		{Year: Some(2022), DeathCount: Some(2), AccidentNature: "COLLISION", NationalityGroup: "QATARI", Severity: "MINOR", BirthYear: Some(2000), Zone: "31"},
		{Year: Some(2022), DeathCount: None, AccidentNature: PedestrianNature, NationalityGroup: "ARAB", Severity: "SEVERE", Zone: "Unknown"},
		{Year: Some(2022), DeathCount: Some(3), AccidentNature: "collision with pedestrians", NationalityGroup: "ASIAN", Severity: "FATAL", BirthYear: Some(1900), Zone: "31"},
	}
}

// ============================================================================
// METRIC TESTS
// ============================================================================

func TestAnnualAverageAccidents(t *testing.T) {
	records := accidentsByYear(map[int]int{2020: 10, 2021: 20})
	avg, ok := AnnualAverageAccidents(records, 2020)
	if !ok {
		t.Fatal("expected a value")
	}
	if avg != 15.0 {
		t.Errorf("average = %v, want 15.0", avg)
	}
}

func TestAnnualAverageSinceYear(t *testing.T) {
	records := accidentsByYear(map[int]int{2018: 100, 2020: 3, 2021: 4, 2022: 4})
	avg, ok := AnnualAverageAccidents(records, 2020)
	if !ok || avg != 3.7 {
		t.Errorf("average = %v (ok=%v), want 3.7", avg, ok)
	}
}

func TestAnnualAverageNoYears(t *testing.T) {
	records := accidentsByYear(map[int]int{2015: 5})
	if _, ok := AnnualAverageAccidents(records, 2020); ok {
		t.Error("expected no data when no year is at or after sinceYear")
	}
	if _, ok := AnnualAverageAccidents(nil, 2020); ok {
		t.Error("expected no data for an empty table")
	}
}

func TestDeaths(t *testing.T) {
	records := sampleAccidents()
	if got := TotalDeaths(records); got != 6 {
		t.Errorf("TotalDeaths = %d, want 6", got)
	}
	// Lowercase nature does not match; the one with no death count adds 0.
	if got := PedestrianDeaths(records); got != 1 {
		t.Errorf("PedestrianDeaths = %d, want 1", got)
	}
	if got := TotalAccidentCount(records); got != 5 {
		t.Errorf("TotalAccidentCount = %d, want 5", got)
	}
}

func TestPedestrianDeathsAbsentNature(t *testing.T) {
	records := []AccidentRecord{
		{AccidentNature: "COLLISION", DeathCount: Some(4)},
		{DeathCount: Some(2)},
	}
	if got := PedestrianDeaths(records); got != 0 {
		t.Errorf("PedestrianDeaths = %d, want 0 without pedestrian collisions", got)
	}
	records = append(records,
		AccidentRecord{AccidentNature: PedestrianNature, DeathCount: Some(2)},
		AccidentRecord{AccidentNature: PedestrianNature, DeathCount: Some(5)},
	)
	if got := PedestrianDeaths(records); got != 7 {
		t.Errorf("PedestrianDeaths = %d, want 7", got)
	}
}

func TestDeathsMonotonic(t *testing.T) {
	records := sampleAccidents()
	total, ped := TotalDeaths(nil), PedestrianDeaths(nil)
	for i := range records {
		nextTotal := TotalDeaths(records[:i+1])
		nextPed := PedestrianDeaths(records[:i+1])
		if nextTotal < total || nextPed < ped {
			t.Fatalf("deaths decreased after adding record %d", i)
		}
		total, ped = nextTotal, nextPed
	}
}

func TestLicenseMetrics(t *testing.T) {
	records := []LicenseRecord{
		{Gender: "F", Age: Some(20)},
		{Gender: "M", Age: Some(30)},
		{Gender: "MALE", Age: Some(40)},
		{Gender: "", Age: None},
	}

	mean, ok := MeanLicenseAge(records)
	if !ok || mean != 30 {
		t.Errorf("MeanLicenseAge = %v (ok=%v), want 30", mean, ok)
	}

	ratio, ok := FemaleToMaleRatio(records)
	if !ok || math.Abs(ratio-0.5) > 1e-9 {
		t.Errorf("FemaleToMaleRatio = %v (ok=%v), want 0.5", ratio, ok)
	}

	if _, ok := FemaleToMaleRatio([]LicenseRecord{{Gender: "F"}}); ok {
		t.Error("ratio without males should be unavailable")
	}
}

func TestAccidentMetricsDisplay(t *testing.T) {
	metrics := AccidentMetrics(sampleAccidents(), 2020)
	if len(metrics) != 4 {
		t.Fatalf("got %d metrics, want 4", len(metrics))
	}
	want := map[string]string{
		MetricAnnualAverage:    "2.5",
		MetricTotalDeaths:      "6",
		MetricPedestrianDeaths: "1",
		MetricAccidentCount:    "5",
	}
	for _, m := range metrics {
		if m.Value != want[m.Key] {
			t.Errorf("%s = %q, want %q", m.Key, m.Value, want[m.Key])
		}
	}

	empty := AccidentMetrics(nil, 2020)
	if empty[0].Available {
		t.Error("annual average of an empty table should be unavailable")
	}
}

func TestLicenseIssueDay(t *testing.T) {
	r := LicenseRecord{FirstIssueDate: time.Date(2022, 3, 1, 14, 30, 0, 0, time.UTC)}
	if day, ok := r.IssueDay(); !ok || day != "2022-03-01" {
		t.Errorf("IssueDay = %q (ok=%v)", day, ok)
	}
	if _, ok := (LicenseRecord{}).IssueDay(); ok {
		t.Error("zero date should be absent")
	}
}

func TestTableYears(t *testing.T) {
	table := NewAccidentTable(append(sampleAccidents(), AccidentRecord{Year: None}))
	years := table.Years()
	if len(years) != 2 || years[0] != 2021 || years[1] != 2022 {
		t.Errorf("Years = %v, want [2021 2022]", years)
	}

	var nilTable *LicenseTable
	if nilTable.Len() != 0 || nilTable.Years() != nil {
		t.Error("nil table should be empty")
	}
}
