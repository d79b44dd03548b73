package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/traffiq/traffiq/engine"
	"github.com/traffiq/traffiq/schema"
	"github.com/traffiq/traffiq/traffic"
)

// ============================================================================
// FAKES
// ============================================================================

type recorder struct {
	draws     []traffic.ChartID
	charts    map[traffic.ChartID]*engine.ChartConfig
	fragments []int
	metrics   map[string][]engine.Metric
	controls  [][]Domain
}

func newRecorder() *recorder {
	return &recorder{
		charts:  make(map[traffic.ChartID]*engine.ChartConfig),
		metrics: make(map[string][]engine.Metric),
	}
}

func (r *recorder) Draw(_ context.Context, id traffic.ChartID, chart *engine.ChartConfig) error {
	r.draws = append(r.draws, id)
	r.charts[id] = chart
	return nil
}

func (r *recorder) ShowFragment(_ context.Context, year int, _ []byte) error {
	r.fragments = append(r.fragments, year)
	return nil
}

func (r *recorder) ShowMetrics(_ context.Context, dataset string, metrics []engine.Metric) error {
	r.metrics[dataset] = metrics
	return nil
}

func (r *recorder) ShowControls(_ context.Context, domains []Domain) error {
	r.controls = append(r.controls, domains)
	return nil
}

func (r *recorder) reset() {
	r.draws = nil
	r.fragments = nil
}

type fakeStore struct {
	missing map[int]bool
	fetched []int
}

func (s *fakeStore) Fetch(_ context.Context, year int) ([]byte, error) {
	s.fetched = append(s.fetched, year)
	if s.missing[year] {
		return nil, errors.New("not found")
	}
	return []byte("<div>map</div>"), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(store FragmentStore) (*Controller, *recorder) {
	rec := newRecorder()
	opts := []Option{WithMetricSink(rec), WithLogger(quietLogger())}
	if store != nil {
		opts = append(opts, WithFragmentStore(store))
	}
	return New(rec, opts...), rec
}

func accidentTable() *traffic.AccidentTable {
	return traffic.NewAccidentTable([]traffic.AccidentRecord{
		{Year: traffic.Some(2021), Severity: "MINOR", NationalityGroup: "QATARI", BirthYear: traffic.Some(1990), Zone: "12"},
		{Year: traffic.Some(2023), Severity: "SEVERE", NationalityGroup: "ASIAN", BirthYear: traffic.Some(2000), Zone: "31"},
		{Year: traffic.Some(2022), Severity: "FATAL", NationalityGroup: "ARAB", DeathCount: traffic.Some(1), Zone: "12"},
	})
}

func licenseTable() *traffic.LicenseTable {
	issued := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	return traffic.NewLicenseTable([]traffic.LicenseRecord{
		{Year: traffic.Some(2021), Month: traffic.Some(5), Gender: "M", Age: traffic.Some(20), FirstIssueDate: issued.AddDate(-1, 2, 0)},
		{Year: traffic.Some(2022), Month: traffic.Some(3), Gender: "F", Age: traffic.Some(24), FirstIssueDate: issued},
	})
}

// ============================================================================
// LOAD TESTS
// ============================================================================

func TestLoadAccidentsDefaultsToLatestYear(t *testing.T) {
	store := &fakeStore{}
	c, rec := newTestController(store)

	c.LoadAccidents(context.Background(), accidentTable())

	if got := c.Selection().AccidentYear; got != 2023 {
		t.Errorf("accident year = %d, want 2023", got)
	}
	if !reflect.DeepEqual(rec.draws, ChartsOf(schema.DatasetAccidents)) {
		t.Errorf("draws = %v, want all accident charts", rec.draws)
	}
	if !reflect.DeepEqual(rec.fragments, []int{2023}) {
		t.Errorf("fragments = %v, want [2023]", rec.fragments)
	}
	if len(rec.metrics[schema.DatasetAccidents]) != 4 {
		t.Errorf("accident metrics = %v", rec.metrics[schema.DatasetAccidents])
	}
	if !c.Ready(schema.DatasetAccidents) || c.Ready(schema.DatasetLicenses) {
		t.Error("only the accident half should be ready")
	}
}

func TestLoadEmptyTableKeepsSelectorsDisabled(t *testing.T) {
	c, rec := newTestController(nil)
	c.LoadLicenses(context.Background(), traffic.NewLicenseTable(nil))

	if c.Ready(schema.DatasetLicenses) {
		t.Error("licenses with no years should not be ready")
	}
	chart := rec.charts[traffic.ChartLicenseByCategory]
	if chart == nil || chart.Placeholder != engine.NoDataText {
		t.Errorf("license chart = %+v, want empty placeholder", chart)
	}
	err := c.Select(context.Background(), ControlLicenseYear, "2022")
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
}

func TestLoadFailedOnlyAffectsItsHalf(t *testing.T) {
	c, rec := newTestController(nil)
	ctx := context.Background()
	c.LoadLicenses(ctx, licenseTable())
	rec.reset()

	c.LoadFailed(ctx, schema.DatasetAccidents, errors.New("boom"))

	if !reflect.DeepEqual(rec.draws, ChartsOf(schema.DatasetAccidents)) {
		t.Errorf("draws = %v, want accident placeholders only", rec.draws)
	}
	for _, id := range ChartsOf(schema.DatasetAccidents) {
		if p := rec.charts[id].Placeholder; !strings.Contains(p, "Failed to load") {
			t.Errorf("%s placeholder = %q", id, p)
		}
	}
	for _, m := range rec.metrics[schema.DatasetAccidents] {
		if m.Available {
			t.Errorf("metric %s should be unavailable", m.Key)
		}
	}
	if !c.Ready(schema.DatasetLicenses) {
		t.Error("license half should stay ready")
	}
	if err := c.Select(ctx, ControlLicenseCategory, string(traffic.CategoryNationalityGroup)); err != nil {
		t.Errorf("license selector rejected after accident failure: %v", err)
	}
}

// ============================================================================
// SELECTION TESTS
// ============================================================================

func TestSelectRedrawsDependentsOnly(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		control Control
		value   string
		charts  []traffic.ChartID
		frags   []int
	}{
		{ControlAccidentYear, "2021", []traffic.ChartID{traffic.ChartAccidentAgeScatter, traffic.ChartZonesByYear}, []int{2021}},
		{ControlSeverityCategory, "accident-reason", []traffic.ChartID{traffic.ChartSeverityByCategory}, nil},
		{ControlLicenseCategory, "nationality-group", []traffic.ChartID{traffic.ChartLicenseByCategory}, nil},
		{ControlLicenseYear, "2021", []traffic.ChartID{traffic.ChartLicenseByCategory}, nil},
		{ControlSeverityFilter, "FATAL,SEVERE", []traffic.ChartID{traffic.ChartYearlyTrend, traffic.ChartTopZones}, nil},
		{ControlNationalityFilter, "QATARI", []traffic.ChartID{traffic.ChartYearlyTrend, traffic.ChartTopZones}, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.control), func(t *testing.T) {
			c, rec := newTestController(&fakeStore{})
			c.LoadAccidents(ctx, accidentTable())
			c.LoadLicenses(ctx, licenseTable())
			rec.reset()

			if err := c.Select(ctx, tt.control, tt.value); err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			if !reflect.DeepEqual(rec.draws, tt.charts) {
				t.Errorf("draws = %v, want %v", rec.draws, tt.charts)
			}
			if !reflect.DeepEqual(rec.fragments, tt.frags) {
				t.Errorf("fragments = %v, want %v", rec.fragments, tt.frags)
			}
		})
	}
}

func TestSelectRejections(t *testing.T) {
	ctx := context.Background()
	c, rec := newTestController(nil)

	if err := c.Select(ctx, ControlAccidentYear, "2021"); !errors.Is(err, ErrNotReady) {
		t.Errorf("before load: err = %v, want ErrNotReady", err)
	}

	c.LoadAccidents(ctx, accidentTable())
	before := c.Selection()
	rec.reset()

	tests := []struct {
		control Control
		value   string
		want    error
	}{
		{ControlAccidentYear, "1999", ErrInvalidSelection},
		{ControlAccidentYear, "latest", ErrInvalidSelection},
		{ControlSeverityCategory, "gender", ErrInvalidSelection},
		{ControlSeverityFilter, "FATAL,DEADLY", ErrInvalidSelection},
		{ControlNationalityFilter, "qatari", ErrInvalidSelection},
		{Control("zone"), "12", ErrUnknownControl},
	}
	for _, tt := range tests {
		err := c.Select(ctx, tt.control, tt.value)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s=%s: err = %v, want %v", tt.control, tt.value, err, tt.want)
		}
		if !IsRejected(err) {
			t.Errorf("%s=%s: IsRejected = false", tt.control, tt.value)
		}
	}
	if !reflect.DeepEqual(c.Selection(), before) {
		t.Errorf("selection changed on rejected events: %+v", c.Selection())
	}
	if len(rec.draws) != 0 {
		t.Errorf("rejected events redrew %v", rec.draws)
	}
}

func TestTrendFilters(t *testing.T) {
	ctx := context.Background()
	c, rec := newTestController(nil)
	c.LoadAccidents(ctx, accidentTable())

	if err := c.Select(ctx, ControlSeverityFilter, " SEVERE , FATAL,SEVERE"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got := c.Selection().SeverityFilter; !reflect.DeepEqual(got, []string{"SEVERE", "FATAL"}) {
		t.Errorf("severity filter = %v", got)
	}
	trend := rec.charts[traffic.ChartYearlyTrend]
	if len(trend.Series) != 1 || len(trend.Series[0].Data) != 2 {
		t.Fatalf("filtered trend = %+v", trend.Series)
	}
	if !strings.Contains(trend.Title, "Severity: SEVERE, FATAL") {
		t.Errorf("trend title = %q", trend.Title)
	}
	top := rec.charts[traffic.ChartTopZones]
	if !strings.Contains(top.Title, "Top 2 Zones") {
		t.Errorf("top zones title = %q", top.Title)
	}

	if err := c.Select(ctx, ControlNationalityFilter, "ARAB"); err != nil {
		t.Fatal(err)
	}
	if data := rec.charts[traffic.ChartYearlyTrend].Series[0].Data; len(data) != 1 || data[0].X != 2022 {
		t.Errorf("severity and nationality should combine: %+v", data)
	}

	domains := c.Domains()
	sev := domains[4]
	if sev.Control != ControlSeverityFilter || !sev.Multi || sev.Value != "SEVERE,FATAL" {
		t.Errorf("severity filter domain = %+v", sev)
	}
	if !reflect.DeepEqual(sev.Values, []string{"FATAL", "MINOR", "SEVERE"}) {
		t.Errorf("severity filter values = %v", sev.Values)
	}

	if err := c.Select(ctx, ControlSeverityFilter, ""); err != nil {
		t.Fatal(err)
	}
	if c.Selection().SeverityFilter != nil {
		t.Errorf("empty value should clear the filter, got %v", c.Selection().SeverityFilter)
	}

	c.LoadAccidents(ctx, accidentTable())
	if sel := c.Selection(); sel.NationalityFilter != nil {
		t.Errorf("reload kept filter %v", sel.NationalityFilter)
	}
}

func TestFragmentFailureKeepsPreviousMap(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{missing: map[int]bool{2022: true}}
	c, rec := newTestController(store)
	c.LoadAccidents(ctx, accidentTable())
	rec.reset()

	if err := c.Select(ctx, ControlAccidentYear, "2022"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rec.fragments) != 0 {
		t.Errorf("fragment shown despite failed fetch: %v", rec.fragments)
	}
	if len(rec.draws) != 2 {
		t.Errorf("charts not redrawn on fragment failure: %v", rec.draws)
	}
	if !reflect.DeepEqual(store.fetched, []int{2023, 2022}) {
		t.Errorf("fetched = %v", store.fetched)
	}
}

func TestCategoryRoundTripRedrawsSameChart(t *testing.T) {
	ctx := context.Background()
	c, rec := newTestController(nil)
	c.LoadAccidents(ctx, accidentTable())
	original := rec.charts[traffic.ChartSeverityByCategory]

	for _, v := range []string{"accident-nature", "nationality-group"} {
		if err := c.Select(ctx, ControlSeverityCategory, v); err != nil {
			t.Fatal(err)
		}
	}
	if !reflect.DeepEqual(rec.charts[traffic.ChartSeverityByCategory], original) {
		t.Error("severity chart differs after switching category back")
	}
}

func TestDomains(t *testing.T) {
	c, rec := newTestController(nil)
	c.LoadAccidents(context.Background(), accidentTable())

	domains := c.Domains()
	if len(domains) != len(Controls) {
		t.Fatalf("got %d domains, want %d", len(domains), len(Controls))
	}
	year := domains[0]
	if !year.Enabled || year.Value != "2023" || !reflect.DeepEqual(year.Values, []string{"2021", "2022", "2023"}) {
		t.Errorf("accident year domain = %+v", year)
	}
	if domains[3].Enabled {
		t.Error("license year should be disabled before licenses load")
	}
	if len(rec.controls) == 0 {
		t.Error("control sink was never told")
	}
}

func TestDependents(t *testing.T) {
	dep, err := Dependents(ControlAccidentYear)
	if err != nil || !dep.Fragment || len(dep.Charts) != 2 {
		t.Errorf("Dependents(accident-year) = %+v, %v", dep, err)
	}
	dep.Charts[0] = "mutated"
	again, _ := Dependents(ControlAccidentYear)
	if again.Charts[0] == "mutated" {
		t.Error("Dependents leaked the internal table")
	}
	if _, err := ParseControl("nope"); !errors.Is(err, ErrUnknownControl) {
		t.Errorf("ParseControl err = %v", err)
	}
}

// ============================================================================
// EVENT LOOP TESTS
// ============================================================================

func TestRunProcessesEventsInOrder(t *testing.T) {
	c, rec := newTestController(nil)
	events := make(chan Event, 8)
	early := make(chan error, 1)
	later := make(chan error, 1)

	events <- ControlChanged{Control: ControlAccidentYear, Value: "2021", Reply: early}
	events <- AccidentsLoaded{Table: accidentTable()}
	events <- LoadError{Dataset: schema.DatasetLicenses, Err: errors.New("unreachable")}
	events <- ControlChanged{Control: ControlAccidentYear, Value: "2021", Reply: later}
	close(events)

	if err := c.Run(context.Background(), events); err != nil {
		t.Fatalf("Run = %v, want nil on closed channel", err)
	}
	if err := <-early; !errors.Is(err, ErrNotReady) {
		t.Errorf("early select err = %v, want ErrNotReady", err)
	}
	if err := <-later; err != nil {
		t.Errorf("later select err = %v", err)
	}
	if c.Selection().AccidentYear != 2021 {
		t.Errorf("accident year = %d, want 2021", c.Selection().AccidentYear)
	}
	if p := rec.charts[traffic.ChartAnnualLicenseByMonth].Placeholder; p != "Failed to load licenses" {
		t.Errorf("license placeholder = %q", p)
	}
}

type panicky struct {
	*recorder
	armed bool
}

func (p *panicky) Draw(ctx context.Context, id traffic.ChartID, chart *engine.ChartConfig) error {
	if p.armed {
		p.armed = false
		panic("renderer exploded")
	}
	return p.recorder.Draw(ctx, id, chart)
}

func TestRunSurvivesHandlerPanic(t *testing.T) {
	r := &panicky{recorder: newRecorder()}
	c := New(r, WithLogger(quietLogger()))
	c.LoadAccidents(context.Background(), accidentTable())
	r.armed = true

	events := make(chan Event, 4)
	failed := make(chan error, 1)
	after := make(chan error, 1)
	events <- ControlChanged{Control: ControlSeverityCategory, Value: "accident-reason", Reply: failed}
	events <- ControlChanged{Control: ControlAccidentYear, Value: "2021", Reply: after}
	close(events)

	if err := c.Run(context.Background(), events); err != nil {
		t.Fatalf("Run = %v, want nil after recovering", err)
	}
	if err := <-failed; !errors.Is(err, ErrHandlerPanic) {
		t.Errorf("reply of the panicking event = %v, want ErrHandlerPanic", err)
	}
	if IsRejected(ErrHandlerPanic) {
		t.Error("a panic is not a rejection")
	}
	if err := <-after; err != nil {
		t.Errorf("event after the panic: %v", err)
	}
	if c.Selection().AccidentYear != 2021 {
		t.Errorf("accident year = %d, want 2021", c.Selection().AccidentYear)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	c, _ := newTestController(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx, make(chan Event)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}
