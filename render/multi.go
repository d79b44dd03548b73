package render

import (
	"context"
	"errors"

	"github.com/traffiq/traffiq/dashboard"
	"github.com/traffiq/traffiq/engine"
	"github.com/traffiq/traffiq/traffic"
)

// Multi fans every call out to several renderers. Metric and control
// updates only reach renderers that implement the matching interface.
type Multi []dashboard.Renderer

// Draw draws on every renderer and joins their errors.
func (m Multi) Draw(ctx context.Context, id traffic.ChartID, chart *engine.ChartConfig) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Draw(ctx, id, chart))
	}
	return errors.Join(errs...)
}

// ShowFragment forwards the fragment to every renderer.
func (m Multi) ShowFragment(ctx context.Context, year int, fragment []byte) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.ShowFragment(ctx, year, fragment))
	}
	return errors.Join(errs...)
}

// ShowMetrics forwards to every renderer that is also a MetricSink.
func (m Multi) ShowMetrics(ctx context.Context, dataset string, metrics []engine.Metric) error {
	var errs []error
	for _, r := range m {
		if sink, ok := r.(dashboard.MetricSink); ok {
			errs = append(errs, sink.ShowMetrics(ctx, dataset, metrics))
		}
	}
	return errors.Join(errs...)
}

// ShowControls forwards to every renderer that is also a ControlSink.
func (m Multi) ShowControls(ctx context.Context, domains []dashboard.Domain) error {
	var errs []error
	for _, r := range m {
		if sink, ok := r.(dashboard.ControlSink); ok {
			errs = append(errs, sink.ShowControls(ctx, domains))
		}
	}
	return errors.Join(errs...)
}
