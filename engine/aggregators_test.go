package engine

import (
	"testing"
)

// ============================================================================
// TEST DATA
// ============================================================================

func rec(dims map[string]string, measures map[string]float64) Record {
	if measures == nil {
		measures = map[string]float64{}
	}
	return Record{Dimensions: dims, Measures: measures}
}

func accidentView() RecordView {
	return NewSliceView([]Record{
		rec(map[string]string{"nationality": "QATARI", "severity": "MINOR"}, map[string]float64{"deaths": 0}),
		rec(map[string]string{"nationality": "ASIAN", "severity": "SEVERE"}, map[string]float64{"deaths": 2}),
		rec(map[string]string{"nationality": "QATARI", "severity": "SEVERE"}, map[string]float64{"deaths": 1}),
		rec(map[string]string{"nationality": "ASIAN", "severity": "MINOR"}, nil),
		rec(map[string]string{"nationality": "ARAB"}, map[string]float64{"deaths": 3}),
		rec(map[string]string{"severity": "MINOR"}, map[string]float64{"deaths": 4}),
	})
}

// ============================================================================
// GROUPING TESTS
// ============================================================================

func TestGroupAndCountInsertionOrder(t *testing.T) {
	groups := GroupAndCount(accidentView(), "nationality", "severity")

	// ARAB has no severity and the last record has no nationality.
	keys := Keys(groups)
	if len(keys) != 2 || keys[0] != "QATARI" || keys[1] != "ASIAN" {
		t.Fatalf("group keys = %v, want [QATARI ASIAN]", keys)
	}

	qatari := groups[0]
	if qatari.Count != 2 {
		t.Errorf("QATARI count = %d, want 2", qatari.Count)
	}
	buckets := Keys(qatari.SubGroups)
	if len(buckets) != 2 || buckets[0] != "MINOR" || buckets[1] != "SEVERE" {
		t.Errorf("QATARI buckets = %v, want [MINOR SEVERE]", buckets)
	}

	asian := groups[1]
	buckets = Keys(asian.SubGroups)
	if len(buckets) != 2 || buckets[0] != "SEVERE" || buckets[1] != "MINOR" {
		t.Errorf("ASIAN buckets = %v, want [SEVERE MINOR]", buckets)
	}
	for _, sg := range asian.SubGroups {
		if sg.Value != 1 || sg.Count != 1 {
			t.Errorf("ASIAN/%s = %v (count %d), want 1", sg.Key, sg.Value, sg.Count)
		}
	}
}

func TestGroupAndCountEmpty(t *testing.T) {
	if groups := GroupAndCount(NewSliceView(nil), "a", "b"); len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}

func TestGroupAndSumMissingValueCountsZero(t *testing.T) {
	groups := GroupAndSum(accidentView(), "nationality", "deaths")

	want := map[string]float64{"QATARI": 1, "ASIAN": 2, "ARAB": 3}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for _, g := range groups {
		if g.Value != want[g.Key] {
			t.Errorf("%s = %v, want %v", g.Key, g.Value, want[g.Key])
		}
	}

	asian, _ := Find(groups, "ASIAN")
	if asian.Count != 2 {
		t.Errorf("ASIAN count = %d, want 2 (record without deaths still belongs)", asian.Count)
	}
}

func TestGroupAndSumMonotonic(t *testing.T) {
	base := []Record{
		rec(map[string]string{"g": "a"}, map[string]float64{"v": 2}),
		rec(map[string]string{"g": "b"}, map[string]float64{"v": 5}),
	}
	before := GroupAndSum(NewSliceView(base), "g", "v")

	more := append(append([]Record{}, base...),
		rec(map[string]string{"g": "a"}, map[string]float64{"v": 0}),
		rec(map[string]string{"g": "b"}, nil),
		rec(map[string]string{"g": "a"}, map[string]float64{"v": 3}),
	)
	after := GroupAndSum(NewSliceView(more), "g", "v")

	for _, b := range before {
		a, ok := Find(after, b.Key)
		if !ok {
			t.Fatalf("group %s disappeared", b.Key)
		}
		if a.Value < b.Value {
			t.Errorf("%s shrank from %v to %v", b.Key, b.Value, a.Value)
		}
	}
}

func TestCountByAndUniqueValues(t *testing.T) {
	view := accidentView()

	groups := CountBy(view, "severity")
	if len(groups) != 2 {
		t.Fatalf("got %d severity groups, want 2", len(groups))
	}
	if groups[0].Key != "MINOR" || groups[0].Value != 3 {
		t.Errorf("first group = %s/%v, want MINOR/3", groups[0].Key, groups[0].Value)
	}

	vals := UniqueValues(view, "nationality")
	assertContains(t, vals, "ARAB", "ARAB should be a nationality")
	if len(vals) != 3 {
		t.Errorf("got %d unique nationalities, want 3", len(vals))
	}
}

func TestSumMeasureAndMeasureValues(t *testing.T) {
	view := accidentView()
	if got := SumMeasure(view, "deaths"); got != 10 {
		t.Errorf("SumMeasure = %v, want 10", got)
	}
	if got := len(MeasureValues(view, "deaths")); got != 5 {
		t.Errorf("MeasureValues len = %d, want 5", got)
	}
}

// ============================================================================
// FILTER TESTS
// ============================================================================

func TestApplyFiltersAbsentNeverMatches(t *testing.T) {
	view := ApplyFilters(accidentView(), Filters{
		Dimensions: map[string][]string{"severity": {"MINOR"}},
	})
	if view.Len() != 3 {
		t.Errorf("filtered len = %d, want 3", view.Len())
	}

	if got := ApplyFilters(accidentView(), Filters{}); got.Len() != 6 {
		t.Errorf("empty filter len = %d, want 6", got.Len())
	}
}

func TestExcludeKeepsAbsent(t *testing.T) {
	view := Exclude(accidentView(), "severity", "MINOR")
	// two SEVERE + ARAB without severity
	if view.Len() != 3 {
		t.Errorf("len = %d, want 3", view.Len())
	}
}

func TestWhereMeasure(t *testing.T) {
	view := WhereMeasure(accidentView(), "deaths", func(v float64) bool { return v > 1 })
	if view.Len() != 3 {
		t.Errorf("len = %d, want 3", view.Len())
	}
}

// ============================================================================
// SORT + FORMAT TESTS
// ============================================================================

func TestSortGroups(t *testing.T) {
	tests := []struct {
		mode string
		in   []string
		want []string
	}{
		{SortNumericAsc, []string{"23", "5", "100"}, []string{"5", "23", "100"}},
		{SortDateAsc, []string{"2022-03-02", "2022-01-15", "2022-03-01"}, []string{"2022-01-15", "2022-03-01", "2022-03-02"}},
		{SortLabelAsc, []string{"b", "A", "c"}, []string{"A", "b", "c"}},
		{SortNone, []string{"z", "a"}, []string{"z", "a"}},
	}
	for _, tt := range tests {
		groups := make([]Group, len(tt.in))
		for i, k := range tt.in {
			groups[i] = Group{Key: k}
		}
		SortGroups(groups, tt.mode)
		got := Keys(groups)
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("%s: got %v, want %v", tt.mode, got, tt.want)
				break
			}
		}
	}
}

func TestSortValueDescStable(t *testing.T) {
	groups := []Group{{Key: "a", Value: 1}, {Key: "b", Value: 3}, {Key: "c", Value: 1}}
	SortGroups(groups, SortValueDesc)
	got := Keys(groups)
	if got[0] != "b" || got[1] != "a" || got[2] != "c" {
		t.Errorf("got %v, want [b a c]", got)
	}
}

func TestFormatInt(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4500: "-4,500"}
	for in, want := range tests {
		if got := FormatInt(in); got != want {
			t.Errorf("FormatInt(%d) = %q, want %q", in, got, want)
		}
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func assertContains(t *testing.T, slice []string, item string, msg string) {
	t.Helper()
	for _, s := range slice {
		if s == item {
			return
		}
	}
	t.Errorf("%s: %q not found in %v", msg, item, slice)
}
