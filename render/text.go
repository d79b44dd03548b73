package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/traffiq/traffiq/dashboard"
	"github.com/traffiq/traffiq/engine"
	"github.com/traffiq/traffiq/traffic"
)

// TextRenderer prints charts as aligned tables and metrics as lines.
type TextRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextRenderer writes to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

// Draw prints the chart's table.
func (r *TextRenderer) Draw(ctx context.Context, id traffic.ChartID, chart *engine.ChartConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.w, "\n📊 %s [%s]\n", chart.Title, id)
	if chart.Placeholder != "" {
		_, err := fmt.Fprintf(r.w, "   %s\n", chart.Placeholder)
		return err
	}
	if chart.Annotation != "" {
		fmt.Fprintf(r.w, "   %s\n", chart.Annotation)
	}
	return writeTable(r.w, engine.BuildTable(chart))
}

// ShowFragment reports the map year and fragment size.
func (r *TextRenderer) ShowFragment(ctx context.Context, year int, fragment []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintf(r.w, "\n🗺️  map %d (%d bytes)\n", year, len(fragment))
	return err
}

// ShowMetrics prints one line per metric.
func (r *TextRenderer) ShowMetrics(ctx context.Context, dataset string, metrics []engine.Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.w, "\n📈 %s\n", dataset)
	for _, m := range metrics {
		if _, err := fmt.Fprintf(r.w, "   %-28s %s\n", m.Label, m.Value); err != nil {
			return err
		}
	}
	return nil
}

// ShowControls prints the selector state.
func (r *TextRenderer) ShowControls(ctx context.Context, domains []dashboard.Domain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	parts := make([]string, 0, len(domains))
	for _, d := range domains {
		value := d.Value
		switch {
		case !d.Enabled:
			value = "-"
		case d.Multi && value == "":
			value = "all"
		}
		parts = append(parts, fmt.Sprintf("%s=%s", d.Control, value))
	}
	_, err := fmt.Fprintf(r.w, "\n🎛️  %s\n", strings.Join(parts, "  "))
	return err
}

func writeTable(w io.Writer, table *engine.TableData) error {
	widths := make([]int, len(table.Columns))
	for i, c := range table.Columns {
		widths[i] = len(c.Label)
	}
	for _, row := range table.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, c := range table.Columns {
		b.WriteString("   ")
		b.WriteString(pad(c.Label, widths[i], c.Align))
	}
	b.WriteString("\n")
	for _, row := range table.Rows {
		for i, cell := range row {
			if i >= len(table.Columns) {
				break
			}
			b.WriteString("   ")
			b.WriteString(pad(cell, widths[i], table.Columns[i].Align))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func pad(s string, width int, align string) string {
	if align == "right" {
		return fmt.Sprintf("%*s", width, s)
	}
	return fmt.Sprintf("%-*s", width, s)
}
