package engine

import (
	"strconv"
	"time"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from Groups
// ============================================================================
// Two shapes:
//   - nested groups (GroupAndCount) → one series per group, points = buckets
//   - flat groups (CountBy, GroupAndSum) → a single series, points = groups
//
// Series order is group order. Builders never mutate their input groups.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#00FFFF", "#FF00FF", "#39FF14", "#F5F5DC", "#B03060",
	"#8B0000", "#4F46E5", "#F59E0B", "#06B6D4", "#84CC16",
}

// BuildChart produces a ChartConfig of the given kind from aggregated groups.
// An empty input yields a chart whose Placeholder is NoDataText.
func BuildChart(kind SeriesKind, groups []Group, opts ...Option) *ChartConfig {
	cfg := applyOptions(opts)

	chart := &ChartConfig{
		ChartType:  kind,
		Title:      cfg.Title,
		XAxis:      cfg.XAxis,
		YAxis:      cfg.YAxis,
		XAxisKind:  cfg.AxisKind,
		XTicks:     cfg.Ticks,
		Series:     []ChartSeries{},
		ShowLegend: cfg.ShowLegend,
		ShowGrid:   true,
		Annotation: cfg.Annotation,
	}

	if len(groups) == 0 {
		chart.Placeholder = NoDataText
		return chart
	}

	if hasSubGroups(groups) {
		chart.Series = buildMultiSeries(kind, groups, cfg)
	} else {
		chart.Series = []ChartSeries{buildSingleSeries(kind, cfg.SeriesName, groups, cfg)}
	}

	chart.Colors = assignColors(len(chart.Series))
	for i := range chart.Series {
		chart.Series[i].Color = chart.Colors[i]
	}
	return chart
}

// Placeholder returns an inert chart showing text instead of data.
func Placeholder(kind SeriesKind, title, text string) *ChartConfig {
	return &ChartConfig{
		ChartType:   kind,
		Title:       title,
		XAxisKind:   AxisCategory,
		Series:      []ChartSeries{},
		Placeholder: text,
	}
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(kind SeriesKind, name string, groups []Group, cfg *config) ChartSeries {
	ordered := sortedCopy(groups, cfg.PointOrder)
	points := make([]ChartPoint, 0, len(ordered))
	for _, g := range ordered {
		points = append(points, toPoint(kind, cfg.AxisKind, g.Key, g.Value))
	}
	return ChartSeries{Name: name, Kind: kind, Data: points}
}

func buildMultiSeries(kind SeriesKind, groups []Group, cfg *config) []ChartSeries {
	var domain []string
	if cfg.ZeroFill {
		domain = bucketDomain(groups, cfg.PointOrder)
	}

	series := make([]ChartSeries, 0, len(groups))
	for _, g := range groups {
		if !cfg.ZeroFill {
			series = append(series, buildSingleSeries(kind, g.Label, g.SubGroups, cfg))
			continue
		}

		lookup := make(map[string]float64, len(g.SubGroups))
		for _, sg := range g.SubGroups {
			lookup[sg.Key] = sg.Value
		}
		points := make([]ChartPoint, 0, len(domain))
		for _, key := range domain {
			points = append(points, toPoint(kind, cfg.AxisKind, key, lookup[key]))
		}
		series = append(series, ChartSeries{Name: g.Label, Kind: kind, Data: points})
	}
	return series
}

// bucketDomain is the union of sub-group keys in first-occurrence order.
func bucketDomain(groups []Group, order string) []string {
	seen := make(map[string]bool)
	var union []Group
	for _, g := range groups {
		for _, sg := range g.SubGroups {
			if !seen[sg.Key] {
				seen[sg.Key] = true
				union = append(union, Group{Key: sg.Key})
			}
		}
	}
	SortGroups(union, order)
	return Keys(union)
}

func toPoint(kind SeriesKind, axis AxisKind, key string, value float64) ChartPoint {
	p := ChartPoint{Label: key, Value: value}
	switch axis {
	case AxisNumeric:
		if f, err := strconv.ParseFloat(key, 64); err == nil {
			p.X = f
		}
	case AxisDate:
		if t, err := time.Parse(DateLayout, key); err == nil {
			p.X = float64(t.Unix())
		}
	}
	// Frequency encodes both position and marker weight.
	if kind == KindSizedScatter {
		p.Size = value
	}
	return p
}

func sortedCopy(groups []Group, order string) []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	SortGroups(out, order)
	return out
}

func hasSubGroups(groups []Group) bool {
	for _, g := range groups {
		if len(g.SubGroups) > 0 {
			return true
		}
	}
	return false
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
