// Package render implements the dashboard's rendering boundary: PNG charts
// (gonum/plot), JSON frames, an Excel workbook and plain text. Every draw
// replaces the previous output of the same chart.
package render

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/traffiq/traffiq/engine"
	"github.com/traffiq/traffiq/traffic"
)

// Marker radius bounds for sized scatter charts.
const (
	minRadius = 2
	maxRadius = 14
)

// PlotRenderer writes one PNG per chart into Dir.
type PlotRenderer struct {
	Dir    string
	Width  vg.Length
	Height vg.Length
}

// NewPlotRenderer returns a renderer writing 12x7 inch PNGs into dir.
func NewPlotRenderer(dir string) *PlotRenderer {
	return &PlotRenderer{Dir: dir, Width: 12 * vg.Inch, Height: 7 * vg.Inch}
}

// Draw renders chart to <dir>/<id>.png.
func (r *PlotRenderer) Draw(ctx context.Context, id traffic.ChartID, chart *engine.ChartConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := Plot(chart)
	if err != nil {
		return fmt.Errorf("plot %s: %w", id, err)
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(r.Dir, string(id)+".png")
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// ShowFragment writes the fragment next to the charts as map.html.
func (r *PlotRenderer) ShowFragment(ctx context.Context, year int, fragment []byte) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.Dir, "map.html"), fragment, 0o644)
}

// ============================================================================
// PLOT BUILDERS — ChartConfig → *plot.Plot
// ============================================================================

// Plot converts a chart into a gonum plot.
func Plot(chart *engine.ChartConfig) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = chart.Title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = chart.XAxis
	p.Y.Label.Text = chart.YAxis

	if chart.Placeholder != "" || chart.IsEmpty() {
		text := chart.Placeholder
		if text == "" {
			text = engine.NoDataText
		}
		return placeholderPlot(p, text)
	}

	var err error
	switch chart.ChartType {
	case engine.KindStackedBar:
		err = addStackedBars(p, chart)
	case engine.KindSizedScatter:
		err = addSizedScatter(p, chart)
	default:
		err = addLines(p, chart)
	}
	if err != nil {
		return nil, err
	}

	switch {
	case len(chart.XTicks) > 0:
		ticks := make([]plot.Tick, len(chart.XTicks))
		for i, t := range chart.XTicks {
			ticks[i] = plot.Tick{Value: t.Value, Label: t.Label}
		}
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
		p.X.Min = math.Min(p.X.Min, chart.XTicks[0].Value)
		p.X.Max = math.Max(p.X.Max, chart.XTicks[len(chart.XTicks)-1].Value)
	case chart.XAxisKind == engine.AxisDate:
		p.X.Tick.Marker = plot.TimeTicks{Format: engine.DateLayout}
	}

	if chart.ShowGrid {
		p.Add(plotter.NewGrid())
	}
	if chart.ShowLegend {
		p.Legend.Top = true
	}
	if chart.Annotation != "" {
		if err := annotate(p, chart.Annotation); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func placeholderPlot(p *plot.Plot, text string) (*plot.Plot, error) {
	p.HideAxes()
	label, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: 0.5, Y: 0.5}},
		Labels: []string{text},
	})
	if err != nil {
		return nil, err
	}
	label.TextStyle[0].XAlign = draw.XCenter
	p.Add(label)
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	return p, nil
}

func addStackedBars(p *plot.Plot, chart *engine.ChartConfig) error {
	labels := xLabels(chart)
	width := vg.Points(math.Max(8, 480/float64(len(labels)+1)))

	var below *plotter.BarChart
	for i, s := range chart.Series {
		values := make(plotter.Values, len(labels))
		for j, label := range labels {
			if pt, ok := s.Point(label); ok {
				values[j] = pt.Value
			}
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		bars.Color = seriesColor(chart, i)
		bars.LineStyle.Width = vg.Length(0)
		if below != nil {
			bars.StackOn(below)
		}
		below = bars
		p.Add(bars)
		if chart.ShowLegend {
			p.Legend.Add(s.Name, bars)
		}
	}

	p.NominalX(labels...)
	if len(labels) > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	return nil
}

func addLines(p *plot.Plot, chart *engine.ChartConfig) error {
	for i, s := range chart.Series {
		if len(s.Data) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(seriesXYs(chart, s))
		if err != nil {
			return err
		}
		c := seriesColor(chart, i)
		line.Color = c
		line.Width = vg.Points(2)
		points.Color = c
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		if chart.ShowLegend {
			p.Legend.Add(s.Name, line, points)
		}
	}
	return nil
}

func addSizedScatter(p *plot.Plot, chart *engine.ChartConfig) error {
	var sizes []float64
	for _, s := range chart.Series {
		for _, pt := range s.Data {
			sizes = append(sizes, pt.Size)
		}
	}
	maxSize := floats.Max(sizes)

	for i, s := range chart.Series {
		if len(s.Data) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(seriesXYs(chart, s))
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = seriesColor(chart, i)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		data := s.Data
		scatter.GlyphStyleFunc = func(j int) draw.GlyphStyle {
			style := scatter.GlyphStyle
			style.Radius = markerRadius(data[j].Size, maxSize)
			return style
		}
		p.Add(scatter)
		if chart.ShowLegend {
			p.Legend.Add(s.Name, scatter)
		}
	}
	return nil
}

// markerRadius scales by area so marker area tracks size.
func markerRadius(size, maxSize float64) vg.Length {
	if maxSize <= 0 || size <= 0 {
		return vg.Points(minRadius)
	}
	return vg.Points(minRadius + (maxRadius-minRadius)*math.Sqrt(size/maxSize))
}

func annotate(p *plot.Plot, text string) error {
	label, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: p.X.Min, Y: p.Y.Max}},
		Labels: []string{text},
	})
	if err != nil {
		return err
	}
	label.TextStyle[0].YAlign = draw.YTop
	p.Add(label)
	return nil
}

func seriesXYs(chart *engine.ChartConfig, s engine.ChartSeries) plotter.XYs {
	xys := make(plotter.XYs, len(s.Data))
	for i, pt := range s.Data {
		xys[i].X = pt.X
		if chart.XAxisKind == engine.AxisCategory {
			xys[i].X = float64(i)
		}
		xys[i].Y = pt.Value
	}
	return xys
}

// xLabels is the union of point labels across series, first-occurrence order.
func xLabels(chart *engine.ChartConfig) []string {
	var labels []string
	seen := make(map[string]bool)
	for _, s := range chart.Series {
		for _, pt := range s.Data {
			if !seen[pt.Label] {
				seen[pt.Label] = true
				labels = append(labels, pt.Label)
			}
		}
	}
	return labels
}

func seriesColor(chart *engine.ChartConfig, i int) color.Color {
	hex := ""
	if i < len(chart.Series) {
		hex = chart.Series[i].Color
	}
	if hex == "" && i < len(chart.Colors) {
		hex = chart.Colors[i]
	}
	c, ok := parseHex(hex)
	if !ok {
		return color.RGBA{R: 70, G: 130, B: 180, A: 255}
	}
	return c
}

func parseHex(hex string) (color.RGBA, bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}
