// Package dashboard owns the selection state of the dashboard and keeps
// every chart consistent with it. All methods must be called from a single
// goroutine; Run provides that goroutine.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/traffiq/traffiq/engine"
	"github.com/traffiq/traffiq/schema"
	"github.com/traffiq/traffiq/traffic"
)

// ============================================================================
// CHART REGISTRY
// ============================================================================

type chartEntry struct {
	dataset string
	kind    engine.SeriesKind
	title   string
	build   func(c *Controller) *engine.ChartConfig
}

var charts = map[traffic.ChartID]chartEntry{
	traffic.ChartSeverityByCategory: {
		dataset: schema.DatasetAccidents,
		kind:    engine.KindStackedBar,
		title:   "Accident Severity",
		build: func(c *Controller) *engine.ChartConfig {
			return traffic.SeverityByCategory(c.accidentRecords(), c.selection.SeverityCategory)
		},
	},
	traffic.ChartAccidentAgeScatter: {
		dataset: schema.DatasetAccidents,
		kind:    engine.KindSizedScatter,
		title:   "Age Distribution of Accident Perpetrators",
		build: func(c *Controller) *engine.ChartConfig {
			return traffic.AccidentAgeScatter(c.accidentRecords(), c.selection.AccidentYear)
		},
	},
	traffic.ChartZonesByYear: {
		dataset: schema.DatasetAccidents,
		kind:    engine.KindStackedBar,
		title:   "Accidents by Zone",
		build: func(c *Controller) *engine.ChartConfig {
			return traffic.ZoneAccidents(c.accidentRecords(), c.selection.AccidentYear)
		},
	},
	traffic.ChartYearlyTrend: {
		dataset: schema.DatasetAccidents,
		kind:    engine.KindLine,
		title:   "Yearly Accident Trend",
		build: func(c *Controller) *engine.ChartConfig {
			return traffic.YearlyAccidentTrend(c.accidentRecords(), c.selection.AccidentFilters())
		},
	},
	traffic.ChartTopZones: {
		dataset: schema.DatasetAccidents,
		kind:    engine.KindLine,
		title:   "Yearly Accidents in Top Zones",
		build: func(c *Controller) *engine.ChartConfig {
			return traffic.TopZonesByYear(c.accidentRecords(), c.cfg.topZones, c.selection.AccidentFilters())
		},
	},
	traffic.ChartLicenseByCategory: {
		dataset: schema.DatasetLicenses,
		kind:    engine.KindLine,
		title:   "License Issued by Category",
		build: func(c *Controller) *engine.ChartConfig {
			return traffic.LicenseByCategory(c.licenseRecords(), c.selection.LicenseCategory, c.selection.LicenseYear)
		},
	},
	traffic.ChartLicenseAgeBubble: {
		dataset: schema.DatasetLicenses,
		kind:    engine.KindSizedScatter,
		title:   "Age at License Issue",
		build: func(c *Controller) *engine.ChartConfig {
			return traffic.LicenseAgeBubble(c.licenseRecords())
		},
	},
	traffic.ChartAnnualLicenseByMonth: {
		dataset: schema.DatasetLicenses,
		kind:    engine.KindLine,
		title:   "Annual License Issue",
		build: func(c *Controller) *engine.ChartConfig {
			return traffic.AnnualLicenseByMonth(c.licenseRecords())
		},
	},
}

// ChartsOf lists the charts of a dataset in layout order.
func ChartsOf(dataset string) []traffic.ChartID {
	switch dataset {
	case schema.DatasetAccidents:
		return []traffic.ChartID{
			traffic.ChartSeverityByCategory,
			traffic.ChartAccidentAgeScatter,
			traffic.ChartZonesByYear,
			traffic.ChartYearlyTrend,
			traffic.ChartTopZones,
		}
	case schema.DatasetLicenses:
		return []traffic.ChartID{
			traffic.ChartLicenseByCategory,
			traffic.ChartLicenseAgeBubble,
			traffic.ChartAnnualLicenseByMonth,
		}
	}
	return nil
}

// ============================================================================
// CONTROLLER
// ============================================================================

// Controller holds the loaded tables and the current Selection, and
// redraws exactly the outputs that depend on a changed control.
type Controller struct {
	renderer Renderer
	cfg      *config
	logger   *slog.Logger

	accidents     *traffic.AccidentTable
	licenses      *traffic.LicenseTable
	accidentYears []int
	licenseYears  []int
	severities    []string
	nationalities []string
	ready         map[string]bool

	selection traffic.Selection
}

// New creates a controller with both datasets unloaded.
func New(renderer Renderer, opts ...Option) *Controller {
	cfg := applyOptions(opts)
	return &Controller{
		renderer:  renderer,
		cfg:       cfg,
		logger:    cfg.logger,
		ready:     make(map[string]bool),
		selection: traffic.DefaultSelection(),
	}
}

// Selection returns the current selection.
func (c *Controller) Selection() traffic.Selection {
	return c.selection
}

// Ready reports whether a dataset's selectors accept events.
func (c *Controller) Ready(dataset string) bool {
	return c.ready[dataset]
}

// Domains returns the state of every selector in display order.
func (c *Controller) Domains() []Domain {
	domains := make([]Domain, 0, len(Controls))
	for _, ctl := range Controls {
		domains = append(domains, c.domain(ctl))
	}
	return domains
}

func (c *Controller) domain(ctl Control) Domain {
	d := Domain{Control: ctl, Enabled: c.ready[dependencies[ctl].Dataset]}
	switch ctl {
	case ControlAccidentYear:
		d.Values = yearStrings(c.accidentYears)
		d.Value = yearString(c.selection.AccidentYear)
	case ControlLicenseYear:
		d.Values = yearStrings(c.licenseYears)
		d.Value = yearString(c.selection.LicenseYear)
	case ControlSeverityCategory:
		d.Values = categoryStrings(traffic.SeverityCategories)
		d.Value = string(c.selection.SeverityCategory)
	case ControlLicenseCategory:
		d.Values = categoryStrings(traffic.LicenseCategories)
		d.Value = string(c.selection.LicenseCategory)
	case ControlSeverityFilter:
		d.Values = slices.Clone(c.severities)
		d.Value = strings.Join(c.selection.SeverityFilter, ",")
		d.Multi = true
	case ControlNationalityFilter:
		d.Values = slices.Clone(c.nationalities)
		d.Value = strings.Join(c.selection.NationalityFilter, ",")
		d.Multi = true
	}
	return d
}

// ============================================================================
// LOADS
// ============================================================================

// LoadAccidents installs the accident table, selects its most recent year,
// clears the trend filters, draws every accident chart and metric, and
// enables the accident selectors. With no years the selectors stay disabled
// and the year charts are empty.
func (c *Controller) LoadAccidents(ctx context.Context, table *traffic.AccidentTable) {
	c.accidents = table
	c.accidentYears = table.Years()
	c.severities = table.Severities()
	c.nationalities = table.NationalityGroups()
	c.selection.AccidentYear = latest(c.accidentYears)
	c.selection.SeverityFilter, c.selection.NationalityFilter = nil, nil

	c.drawAll(ctx, schema.DatasetAccidents)
	c.showMetrics(ctx, schema.DatasetAccidents,
		traffic.AccidentMetrics(c.accidentRecords(), c.cfg.sinceYear))
	if len(c.accidentYears) > 0 {
		c.showFragment(ctx, c.selection.AccidentYear)
	}

	c.ready[schema.DatasetAccidents] = len(c.accidentYears) > 0
	c.showControls(ctx)
	c.logger.Info("✅ accidents loaded",
		slog.Int("records", table.Len()),
		slog.Int("years", len(c.accidentYears)),
		slog.Int("year", c.selection.AccidentYear))
}

// LoadLicenses installs the license table, selects its most recent year,
// draws every license chart and metric, and enables the license selectors.
func (c *Controller) LoadLicenses(ctx context.Context, table *traffic.LicenseTable) {
	c.licenses = table
	c.licenseYears = table.Years()
	c.selection.LicenseYear = latest(c.licenseYears)

	c.drawAll(ctx, schema.DatasetLicenses)
	c.showMetrics(ctx, schema.DatasetLicenses, traffic.LicenseMetrics(c.licenseRecords()))

	c.ready[schema.DatasetLicenses] = len(c.licenseYears) > 0
	c.showControls(ctx)
	c.logger.Info("✅ licenses loaded",
		slog.Int("records", table.Len()),
		slog.Int("years", len(c.licenseYears)),
		slog.Int("year", c.selection.LicenseYear))
}

// LoadFailed puts one dataset's charts and metrics into placeholder state.
// The other dataset is unaffected.
func (c *Controller) LoadFailed(ctx context.Context, dataset string, err error) {
	c.logger.Error("❌ load failed", slog.String("dataset", dataset), slog.Any("error", err))

	text := fmt.Sprintf("Failed to load %s", dataset)
	switch dataset {
	case schema.DatasetAccidents:
		c.accidents, c.accidentYears = nil, nil
		c.severities, c.nationalities = nil, nil
		c.selection.AccidentYear = 0
		c.selection.SeverityFilter, c.selection.NationalityFilter = nil, nil
		c.showMetrics(ctx, dataset, traffic.UnavailableAccidentMetrics())
	case schema.DatasetLicenses:
		c.licenses, c.licenseYears = nil, nil
		c.selection.LicenseYear = 0
		c.showMetrics(ctx, dataset, traffic.UnavailableLicenseMetrics())
	default:
		return
	}
	c.ready[dataset] = false

	for _, id := range ChartsOf(dataset) {
		entry := charts[id]
		c.render(ctx, id, engine.Placeholder(entry.kind, entry.title, text))
	}
	c.showControls(ctx)
}

// ============================================================================
// SELECTION — Select → recomputeDependents
// ============================================================================

// Select validates value against the control's domain, stores it, and
// redraws the control's dependents. The selection is unchanged on error.
func (c *Controller) Select(ctx context.Context, ctl Control, value string) error {
	dep, ok := dependencies[ctl]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownControl, ctl)
	}
	if !c.ready[dep.Dataset] {
		return fmt.Errorf("%s: %w", ctl, ErrNotReady)
	}

	next := c.selection
	switch ctl {
	case ControlAccidentYear:
		year, err := parseYear(value, c.accidentYears)
		if err != nil {
			return fmt.Errorf("%s: %w", ctl, err)
		}
		next.AccidentYear = year
	case ControlLicenseYear:
		year, err := parseYear(value, c.licenseYears)
		if err != nil {
			return fmt.Errorf("%s: %w", ctl, err)
		}
		next.LicenseYear = year
	case ControlSeverityCategory:
		cat, err := traffic.ParseCategory(value, traffic.SeverityCategories)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", ctl, ErrInvalidSelection, err)
		}
		next.SeverityCategory = cat
	case ControlLicenseCategory:
		cat, err := traffic.ParseCategory(value, traffic.LicenseCategories)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", ctl, ErrInvalidSelection, err)
		}
		next.LicenseCategory = cat
	case ControlSeverityFilter:
		values, err := parseValues(value, c.severities)
		if err != nil {
			return fmt.Errorf("%s: %w", ctl, err)
		}
		next.SeverityFilter = values
	case ControlNationalityFilter:
		values, err := parseValues(value, c.nationalities)
		if err != nil {
			return fmt.Errorf("%s: %w", ctl, err)
		}
		next.NationalityFilter = values
	}

	c.selection = next
	c.recomputeDependents(ctx, ctl)
	c.showControls(ctx)
	return nil
}

// recomputeDependents redraws exactly the outputs listed for ctl.
func (c *Controller) recomputeDependents(ctx context.Context, ctl Control) {
	dep := dependencies[ctl]
	for _, id := range dep.Charts {
		c.draw(ctx, id)
	}
	if dep.Fragment {
		c.showFragment(ctx, c.selection.AccidentYear)
	}
	c.logger.Debug("redrawn", slog.String("control", string(ctl)), slog.Int("charts", len(dep.Charts)))
}

// ============================================================================
// OUTPUT
// ============================================================================

func (c *Controller) drawAll(ctx context.Context, dataset string) {
	for _, id := range ChartsOf(dataset) {
		c.draw(ctx, id)
	}
}

func (c *Controller) draw(ctx context.Context, id traffic.ChartID) {
	entry, ok := charts[id]
	if !ok {
		return
	}
	c.render(ctx, id, entry.build(c))
}

func (c *Controller) render(ctx context.Context, id traffic.ChartID, chart *engine.ChartConfig) {
	if c.renderer == nil {
		return
	}
	if err := c.renderer.Draw(ctx, id, chart); err != nil {
		c.logger.Error("draw failed", slog.String("chart", string(id)), slog.Any("error", err))
	}
}

func (c *Controller) showMetrics(ctx context.Context, dataset string, metrics []engine.Metric) {
	if c.cfg.metrics == nil {
		return
	}
	if err := c.cfg.metrics.ShowMetrics(ctx, dataset, metrics); err != nil {
		c.logger.Error("metrics failed", slog.String("dataset", dataset), slog.Any("error", err))
	}
}

// showFragment swaps the map viewport to the year's fragment. On a failed
// fetch the viewport keeps its previous content.
func (c *Controller) showFragment(ctx context.Context, year int) {
	if c.cfg.fragments == nil || c.renderer == nil {
		return
	}
	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.fragmentTimeout)
	defer cancel()

	fragment, err := c.cfg.fragments.Fetch(fetchCtx, year)
	if err != nil {
		c.logger.Warn("⚠️  map fragment unavailable, keeping previous map",
			slog.Int("year", year), slog.Any("error", err))
		return
	}
	if err := c.renderer.ShowFragment(ctx, year, fragment); err != nil {
		c.logger.Error("fragment render failed", slog.Int("year", year), slog.Any("error", err))
	}
}

func (c *Controller) showControls(ctx context.Context) {
	sink, ok := c.renderer.(ControlSink)
	if !ok {
		return
	}
	if err := sink.ShowControls(ctx, c.Domains()); err != nil {
		c.logger.Error("controls render failed", slog.Any("error", err))
	}
}

func (c *Controller) accidentRecords() []traffic.AccidentRecord {
	return c.accidents.Records()
}

func (c *Controller) licenseRecords() []traffic.LicenseRecord {
	return c.licenses.Records()
}

// ============================================================================
// HELPERS
// ============================================================================

func parseYear(value string, domain []int) (int, error) {
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a year", ErrInvalidSelection, value)
	}
	if !slices.Contains(domain, year) {
		return 0, fmt.Errorf("%w: %d not in %v", ErrInvalidSelection, year, domain)
	}
	return year, nil
}

// parseValues splits a comma-separated multi-selection and checks every
// value against domain. Duplicates collapse; an empty value selects nothing.
func parseValues(value string, domain []string) ([]string, error) {
	var out []string
	for _, v := range strings.Split(value, ",") {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		if !slices.Contains(domain, v) {
			return nil, fmt.Errorf("%w: %q not in %v", ErrInvalidSelection, v, domain)
		}
		out = append(out, v)
	}
	return out, nil
}

func latest(years []int) int {
	if len(years) == 0 {
		return 0
	}
	return years[len(years)-1]
}

func yearString(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func yearStrings(years []int) []string {
	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}

func categoryStrings(cats []traffic.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

// IsRejected reports whether err is an event rejection that leaves the
// dashboard running.
func IsRejected(err error) bool {
	return errors.Is(err, ErrNotReady) || errors.Is(err, ErrInvalidSelection) || errors.Is(err, ErrUnknownControl)
}
