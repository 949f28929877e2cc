package metrics_collectors

import (
	"context"

	"github.com/benmeehan/kiosk-agent/internal/models"
)

// MetricCollector collects one host metric for the status report.
type MetricCollector interface {
	Name() string                                     // Name of the metric (e.g. "cpu", "memory")
	Collect(ctx context.Context) *models.MetricSample // Collect the metric, nil when unavailable
}
