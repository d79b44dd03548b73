package dashboard

import (
	"context"

	"github.com/traffiq/traffiq/engine"
	"github.com/traffiq/traffiq/traffic"
)

// ============================================================================
// RENDERING BOUNDARY
// ============================================================================

// Renderer draws charts and map fragments. Every call fully replaces what
// was shown before for that chart or viewport.
type Renderer interface {
	Draw(ctx context.Context, id traffic.ChartID, chart *engine.ChartConfig) error
	ShowFragment(ctx context.Context, year int, fragment []byte) error
}

// MetricSink displays the scalar metrics of one dataset.
type MetricSink interface {
	ShowMetrics(ctx context.Context, dataset string, metrics []engine.Metric) error
}

// FragmentStore fetches the pre-rendered map fragment of a year.
type FragmentStore interface {
	Fetch(ctx context.Context, year int) ([]byte, error)
}

// ControlSink is told whenever a selector's domain or value changes.
// Optional: renderers that have no selectors need not implement it.
type ControlSink interface {
	ShowControls(ctx context.Context, domains []Domain) error
}
