package metrics_collectors

import (
	"context"

	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/rs/zerolog"
)

// MetricsRegistry holds the enabled collectors in registration order.
type MetricsRegistry struct {
	collectors []MetricCollector
	logger     zerolog.Logger
}

// NewMetricsRegistry creates a registry with the collectors named in
// enabled. documentsDir is the filesystem watched by the disk collector.
func NewMetricsRegistry(enabled []string, documentsDir string, logger zerolog.Logger) *MetricsRegistry {
	r := &MetricsRegistry{logger: logger}
	available := []MetricCollector{
		&CPUMetricCollector{Logger: logger},
		&MemoryMetricCollector{Logger: logger},
		&DiskMetricCollector{Path: documentsDir, Logger: logger},
	}
	for _, name := range enabled {
		found := false
		for _, c := range available {
			if c.Name() == name {
				r.Register(c)
				found = true
			}
		}
		if !found {
			logger.Warn().Str("metric", name).Msg("Unknown metric collector ignored")
		}
	}
	return r
}

// Register adds a new metric collector to the registry.
func (r *MetricsRegistry) Register(collector MetricCollector) {
	r.collectors = append(r.collectors, collector)
}

// Names returns the registered collector names.
func (r *MetricsRegistry) Names() []string {
	names := make([]string, 0, len(r.collectors))
	for _, c := range r.collectors {
		names = append(names, c.Name())
	}
	return names
}

// Collect runs every collector. Unavailable metrics are left out.
func (r *MetricsRegistry) Collect(ctx context.Context) map[string]models.MetricSample {
	samples := make(map[string]models.MetricSample, len(r.collectors))
	for _, c := range r.collectors {
		if sample := c.Collect(ctx); sample != nil {
			samples[c.Name()] = *sample
		}
	}
	return samples
}
