package engine

// ============================================================================
// TRAFFIQ ENGINE TYPES — Groups, Series, Charts, Metrics
// ============================================================================
// The engine knows nothing about accidents or licenses. Domain packages bind
// their typed records through a RecordView and get back render-ready charts.
//
// Dependency: engine has no I/O and no third-party imports.
// ============================================================================

// ============================================================================
// SERIES KINDS
// ============================================================================

// SeriesKind tells the rendering boundary how to draw a series.
type SeriesKind string

const (
	KindStackedBar   SeriesKind = "bar-stacked"
	KindSizedScatter SeriesKind = "scatter-points-sized"
	KindLine         SeriesKind = "line"
)

// AxisKind describes how x keys are interpreted.
type AxisKind string

const (
	AxisCategory AxisKind = "category" // keys are labels, X is unused
	AxisNumeric  AxisKind = "numeric"  // keys parse as numbers (ages, months, years)
	AxisDate     AxisKind = "date"     // keys are calendar days ("2006-01-02"), X is unix seconds
)

// DateLayout is the calendar-day key format used for temporal buckets.
const DateLayout = "2006-01-02"

// ============================================================================
// FILTERS
// ============================================================================

// Filters define which records to include.
// Keys are dimension names. Values are allowed values (exact match).
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// HasFilter returns true if a specific dimension filter is set.
func (f Filters) HasFilter(dimension string) bool {
	if f.Dimensions == nil {
		return false
	}
	vals, ok := f.Dimensions[dimension]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
// Groups are returned in first-occurrence order of their key.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"` // Sub-view for records in this group (zero-copy)
}

// Find returns the group with the given key.
func Find(groups []Group, key string) (Group, bool) {
	for _, g := range groups {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

// Keys returns group keys in order.
func Keys(groups []Group) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  SeriesKind    `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	XAxisKind  AxisKind      `json:"xAxisKind"`
	XTicks     []Tick        `json:"xTicks,omitempty"` // fixed tick domain, independent of data
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
	Annotation string        `json:"annotation,omitempty"`

	// Placeholder is set when the region has nothing to draw
	// ("No data", "Dataset unavailable"). Series is empty in that case.
	Placeholder string `json:"placeholder,omitempty"`
}

// IsEmpty reports whether the chart has no points at all.
func (c *ChartConfig) IsEmpty() bool {
	if c == nil {
		return true
	}
	for _, s := range c.Series {
		if len(s.Data) > 0 {
			return false
		}
	}
	return true
}

// Tick is a fixed axis tick.
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Kind  SeriesKind   `json:"kind"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// Labels returns the x keys of the series in order.
func (s ChartSeries) Labels() []string {
	out := make([]string, len(s.Data))
	for i, p := range s.Data {
		out[i] = p.Label
	}
	return out
}

// Point returns the point at x key label.
func (s ChartSeries) Point(label string) (ChartPoint, bool) {
	for _, p := range s.Data {
		if p.Label == label {
			return p, true
		}
	}
	return ChartPoint{}, false
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`          // x key as bucketed
	X     float64 `json:"x,omitempty"`    // numeric x for numeric and date axes
	Value float64 `json:"value"`          // y
	Size  float64 `json:"size,omitempty"` // marker size, sized scatter only
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// METRIC TYPES
// ============================================================================

// Metric is one scalar display (e.g. "Total deaths").
type Metric struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Value     string  `json:"value"`    // formatted for display
	RawValue  float64 `json:"rawValue"` // meaningless when Available is false
	Available bool    `json:"available"`
}

// NoDataText is shown in place of a metric or chart that cannot be computed.
const NoDataText = "No data"
