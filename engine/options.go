package engine

// ============================================================================
// CHART OPTIONS — Functional options for BuildChart()
// ============================================================================

// Option configures chart building via functional options pattern.
type Option func(*config)

type config struct {
	Title      string
	XAxis      string
	YAxis      string
	AxisKind   AxisKind
	Ticks      []Tick
	SeriesName string // name of the single series built from flat groups
	Annotation string
	PointOrder string // SortGroups mode applied to points inside each series
	ZeroFill   bool   // align every series on the union of x keys, missing = 0
	ShowLegend bool
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(c *config) {
		c.Title = title
	}
}

// WithXAxis sets the x-axis label and how x keys are interpreted.
// Numeric and date axes sort points ascending unless WithPointOrder overrides it.
func WithXAxis(label string, kind AxisKind) Option {
	return func(c *config) {
		c.XAxis = label
		c.AxisKind = kind
		switch kind {
		case AxisNumeric:
			c.PointOrder = SortNumericAsc
		case AxisDate:
			c.PointOrder = SortDateAsc
		}
	}
}

// WithYAxis sets the y-axis label.
func WithYAxis(label string) Option {
	return func(c *config) {
		c.YAxis = label
	}
}

// WithXTicks fixes the x tick domain regardless of which keys have data.
func WithXTicks(ticks []Tick) Option {
	return func(c *config) {
		c.Ticks = ticks
	}
}

// WithSeriesName names the series built from flat (single-level) groups.
func WithSeriesName(name string) Option {
	return func(c *config) {
		c.SeriesName = name
	}
}

// WithAnnotation attaches a free-text annotation (e.g. "Mean Age: 31.4").
func WithAnnotation(text string) Option {
	return func(c *config) {
		c.Annotation = text
	}
}

// WithPointOrder sorts the points of every series with a SortGroups mode.
func WithPointOrder(mode string) Option {
	return func(c *config) {
		c.PointOrder = mode
	}
}

// WithZeroFill aligns all series on the union of their x keys, filling
// missing points with 0. Off by default: lines keep their gaps.
func WithZeroFill(on bool) Option {
	return func(c *config) {
		c.ZeroFill = on
	}
}

// WithLegend toggles the legend.
func WithLegend(on bool) Option {
	return func(c *config) {
		c.ShowLegend = on
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		AxisKind:   AxisCategory,
		SeriesName: "Count",
		ShowLegend: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
