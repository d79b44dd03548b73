package dashboard

import (
	"log/slog"
	"time"

	"github.com/traffiq/traffiq/traffic"
)

// Option configures a Controller.
type Option func(*config)

type config struct {
	metrics         MetricSink
	fragments       FragmentStore
	logger          *slog.Logger
	sinceYear       int
	topZones        int
	fragmentTimeout time.Duration
}

// WithMetricSink sets where metric displays go.
func WithMetricSink(sink MetricSink) Option {
	return func(c *config) {
		c.metrics = sink
	}
}

// WithFragmentStore sets the map fragment source.
// Without one, year changes redraw charts only.
func WithFragmentStore(store FragmentStore) Option {
	return func(c *config) {
		c.fragments = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithSinceYear sets the first year counted by the annual average.
func WithSinceYear(year int) Option {
	return func(c *config) {
		c.sinceYear = year
	}
}

// WithTopZones sets how many zones the top-zone trend shows.
func WithTopZones(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.topZones = n
		}
	}
}

// WithFragmentTimeout bounds a single map fragment fetch.
func WithFragmentTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.fragmentTimeout = d
		}
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		sinceYear:       traffic.DefaultSinceYear,
		topZones:        traffic.DefaultTopZones,
		fragmentTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default().With(slog.String("module", "dashboard"))
	}
	return cfg
}
