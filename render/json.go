package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/traffiq/traffiq/dashboard"
	"github.com/traffiq/traffiq/engine"
	"github.com/traffiq/traffiq/traffic"
)

// Frame is one redraw of one chart as written by JSONRenderer.
type Frame struct {
	FrameID  string              `json:"frameId"`
	Sequence int                 `json:"sequence"`
	ChartID  traffic.ChartID     `json:"chartId"`
	DrawnAt  time.Time           `json:"drawnAt"`
	Chart    *engine.ChartConfig `json:"chart"`
	Table    *engine.TableData   `json:"table,omitempty"`
}

// MetricsFrame is one metric update of a dataset.
type MetricsFrame struct {
	FrameID  string          `json:"frameId"`
	Sequence int             `json:"sequence"`
	Dataset  string          `json:"dataset"`
	Metrics  []engine.Metric `json:"metrics"`
}

// JSONRenderer writes each chart to <dir>/<id>.json, metrics to
// <dir>/metrics_<dataset>.json and selector state to <dir>/controls.json.
type JSONRenderer struct {
	Dir       string
	WithTable bool

	mu  sync.Mutex
	seq int
}

// NewJSONRenderer returns a renderer writing into dir.
func NewJSONRenderer(dir string) *JSONRenderer {
	return &JSONRenderer{Dir: dir}
}

// Draw writes a new frame for the chart.
func (r *JSONRenderer) Draw(ctx context.Context, id traffic.ChartID, chart *engine.ChartConfig) error {
	frame := Frame{
		FrameID:  uuid.New().String(),
		Sequence: r.next(),
		ChartID:  id,
		DrawnAt:  time.Now().UTC(),
		Chart:    chart,
	}
	if r.WithTable {
		frame.Table = engine.BuildTable(chart)
	}
	return r.write(string(id)+".json", frame)
}

// ShowFragment writes the fragment to map.html and records its year.
func (r *JSONRenderer) ShowFragment(ctx context.Context, year int, fragment []byte) error {
	if err := r.write("map.json", map[string]any{
		"frameId":  uuid.New().String(),
		"sequence": r.next(),
		"year":     year,
		"file":     "map.html",
	}); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.Dir, "map.html"), fragment, 0o644)
}

// ShowMetrics writes the dataset's metrics.
func (r *JSONRenderer) ShowMetrics(ctx context.Context, dataset string, metrics []engine.Metric) error {
	return r.write("metrics_"+dataset+".json", MetricsFrame{
		FrameID:  uuid.New().String(),
		Sequence: r.next(),
		Dataset:  dataset,
		Metrics:  metrics,
	})
}

// ShowControls writes the selector state.
func (r *JSONRenderer) ShowControls(ctx context.Context, domains []dashboard.Domain) error {
	return r.write("controls.json", domains)
}

func (r *JSONRenderer) next() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq
}

func (r *JSONRenderer) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.Dir, name), data, 0o644)
}
