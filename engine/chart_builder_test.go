package engine

import (
	"testing"
)

func nestedGroups() []Group {
	return GroupAndCount(accidentView(), "nationality", "severity")
}

func TestBuildChartStackedZeroFill(t *testing.T) {
	chart := BuildChart(KindStackedBar, []Group{
		{Key: "A", Label: "A", SubGroups: []Group{{Key: "MINOR", Value: 2}}},
		{Key: "B", Label: "B", SubGroups: []Group{{Key: "SEVERE", Value: 1}, {Key: "MINOR", Value: 4}}},
	}, WithTitle("Severity"), WithZeroFill(true))

	if chart.ChartType != KindStackedBar {
		t.Fatalf("chart type = %s", chart.ChartType)
	}
	if len(chart.Series) != 2 {
		t.Fatalf("got %d series, want 2", len(chart.Series))
	}

	for _, s := range chart.Series {
		labels := s.Labels()
		if len(labels) != 2 || labels[0] != "MINOR" || labels[1] != "SEVERE" {
			t.Errorf("series %s labels = %v, want [MINOR SEVERE]", s.Name, labels)
		}
	}

	p, _ := chart.Series[0].Point("SEVERE")
	if p.Value != 0 {
		t.Errorf("zero-filled point = %v, want 0", p.Value)
	}
	if chart.Series[0].Color == "" || len(chart.Colors) != 2 {
		t.Errorf("colors not assigned: %v", chart.Colors)
	}
}

func TestBuildChartZeroFillIsOptIn(t *testing.T) {
	chart := BuildChart(KindStackedBar, []Group{
		{Key: "A", Label: "A", SubGroups: []Group{{Key: "MINOR", Value: 2}}},
		{Key: "B", Label: "B", SubGroups: []Group{{Key: "SEVERE", Value: 1}}},
	})
	if _, ok := chart.Series[0].Point("SEVERE"); ok {
		t.Error("series A should have no SEVERE point without WithZeroFill")
	}
	if n := len(chart.Series[1].Data); n != 1 {
		t.Errorf("series B has %d points, want 1", n)
	}
}

func TestBuildChartLineKeepsGaps(t *testing.T) {
	chart := BuildChart(KindLine, []Group{
		{Key: "2021", Label: "2021", SubGroups: []Group{{Key: "3", Value: 1}, {Key: "1", Value: 2}}},
		{Key: "2022", Label: "2022", SubGroups: []Group{{Key: "2", Value: 5}}},
	}, WithXAxis("Month", AxisNumeric))

	if len(chart.Series) != 2 {
		t.Fatalf("got %d series, want 2", len(chart.Series))
	}
	first := chart.Series[0]
	if len(first.Data) != 2 {
		t.Fatalf("2021 has %d points, want 2 (no padding)", len(first.Data))
	}
	if first.Data[0].X != 1 || first.Data[1].X != 3 {
		t.Errorf("points not sorted by x: %+v", first.Data)
	}
	if _, ok := first.Point("2"); ok {
		t.Error("2021 should have no point for month 2")
	}
}

func TestBuildChartDateAxis(t *testing.T) {
	chart := BuildChart(KindLine, []Group{
		{Key: "2022-03-02", Value: 1},
		{Key: "2022-03-01", Value: 4},
	}, WithXAxis("Issue Date", AxisDate))

	data := chart.Series[0].Data
	if data[0].Label != "2022-03-01" {
		t.Errorf("first label = %s, want 2022-03-01", data[0].Label)
	}
	if data[0].X >= data[1].X {
		t.Errorf("date x not ascending: %v, %v", data[0].X, data[1].X)
	}
}

func TestBuildChartSizedScatter(t *testing.T) {
	chart := BuildChart(KindSizedScatter, []Group{
		{Key: "23", Value: 3},
		{Key: "19", Value: 1},
	}, WithXAxis("Age", AxisNumeric), WithSeriesName("Year 2021"))

	s := chart.Series[0]
	if s.Name != "Year 2021" {
		t.Errorf("series name = %q", s.Name)
	}
	for _, p := range s.Data {
		if p.Size != p.Value {
			t.Errorf("size %v != value %v at %s", p.Size, p.Value, p.Label)
		}
	}
	if s.Data[0].X != 19 {
		t.Errorf("first x = %v, want 19", s.Data[0].X)
	}
}

func TestBuildChartEmpty(t *testing.T) {
	chart := BuildChart(KindLine, nil, WithTitle("Empty"))
	if chart.Placeholder != NoDataText {
		t.Errorf("placeholder = %q, want %q", chart.Placeholder, NoDataText)
	}
	if chart.Series == nil || !chart.IsEmpty() {
		t.Error("empty chart should have non-nil, empty series")
	}
}

func TestBuildChartIdempotent(t *testing.T) {
	a := BuildChart(KindStackedBar, nestedGroups())
	b := BuildChart(KindStackedBar, nestedGroups())
	if len(a.Series) != len(b.Series) {
		t.Fatal("series count differs")
	}
	for i := range a.Series {
		if a.Series[i].Name != b.Series[i].Name || len(a.Series[i].Data) != len(b.Series[i].Data) {
			t.Fatalf("series %d differs", i)
		}
		for j := range a.Series[i].Data {
			if a.Series[i].Data[j] != b.Series[i].Data[j] {
				t.Errorf("point %d/%d differs", i, j)
			}
		}
	}
}

func TestBuildTableWideLayout(t *testing.T) {
	chart := BuildChart(KindLine, []Group{
		{Key: "2021", Label: "2021", SubGroups: []Group{{Key: "1", Value: 2}}},
		{Key: "2022", Label: "2022", SubGroups: []Group{{Key: "1", Value: 1}, {Key: "2", Value: 5}}},
	}, WithXAxis("Month", AxisNumeric))

	table := BuildTable(chart)
	if len(table.Columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(table.Columns))
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}
	if table.Rows[1][1] != "" {
		t.Errorf("gap cell = %q, want empty", table.Rows[1][1])
	}
	if table.Summary.Values["s1"] != "6" {
		t.Errorf("2022 total = %q, want 6", table.Summary.Values["s1"])
	}
}

func TestBuildTableRowsFollowAxisOrder(t *testing.T) {
	// Each series is sorted on its own; the union must be sorted again.
	numeric := BuildChart(KindLine, []Group{
		{Key: "a", Label: "a", SubGroups: []Group{{Key: "1", Value: 1}, {Key: "5", Value: 1}}},
		{Key: "b", Label: "b", SubGroups: []Group{{Key: "3", Value: 1}}},
	}, WithXAxis("Month", AxisNumeric))
	if got := tableKeys(BuildTable(numeric)); !equalStrings(got, []string{"1", "3", "5"}) {
		t.Errorf("numeric rows = %v, want [1 3 5]", got)
	}

	dates := BuildChart(KindLine, []Group{
		{Key: "M", Label: "M", SubGroups: []Group{{Key: "2022-03-05", Value: 1}}},
		{Key: "F", Label: "F", SubGroups: []Group{{Key: "2022-03-01", Value: 2}, {Key: "2022-03-09", Value: 1}}},
	}, WithXAxis("Issue Date", AxisDate))
	if got := tableKeys(BuildTable(dates)); !equalStrings(got, []string{"2022-03-01", "2022-03-05", "2022-03-09"}) {
		t.Errorf("date rows = %v", got)
	}

	category := BuildChart(KindStackedBar, []Group{
		{Key: "a", Label: "a", SubGroups: []Group{{Key: "SEVERE", Value: 1}}},
		{Key: "b", Label: "b", SubGroups: []Group{{Key: "MINOR", Value: 1}}},
	}, WithXAxis("Severity", AxisCategory))
	if got := tableKeys(BuildTable(category)); !equalStrings(got, []string{"SEVERE", "MINOR"}) {
		t.Errorf("category rows = %v, want first-occurrence order", got)
	}
}

func tableKeys(table *TableData) []string {
	keys := make([]string, len(table.Rows))
	for i, row := range table.Rows {
		keys[i] = row[0]
	}
	return keys
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMetricFormatting(t *testing.T) {
	m := CountMetric("deaths", "Total deaths", 12345)
	if m.Value != "12,345" || !m.Available {
		t.Errorf("CountMetric = %+v", m)
	}

	d := DecimalMetric("avg", "Average", 15, true, 1)
	if d.Value != "15.0" {
		t.Errorf("DecimalMetric = %q, want 15.0", d.Value)
	}

	u := DecimalMetric("avg", "Average", 0, false, 1)
	if u.Available || u.Value != NoDataText {
		t.Errorf("unavailable metric = %+v", u)
	}
}
