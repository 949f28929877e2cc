package metrics_collectors_test

import (
	"context"
	"testing"

	"github.com/benmeehan/kiosk-agent/internal/metrics_collectors"
	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fixedCollector struct {
	name   string
	sample *models.MetricSample
}

func (f fixedCollector) Name() string { return f.name }

func (f fixedCollector) Collect(context.Context) *models.MetricSample { return f.sample }

// TestNewMetricsRegistry_EnabledOnly tests that only named collectors are registered.
func TestNewMetricsRegistry_EnabledOnly(t *testing.T) {
	r := metrics_collectors.NewMetricsRegistry([]string{"memory", "gpu", "disk"}, t.TempDir(), zerolog.Nop())

	assert.Equal(t, []string{"memory", "disk"}, r.Names())
}

// TestMetricsRegistry_Collect tests that unavailable samples are left out.
func TestMetricsRegistry_Collect(t *testing.T) {
	// Setup
	r := metrics_collectors.NewMetricsRegistry(nil, "", zerolog.Nop())
	r.Register(fixedCollector{name: "cpu", sample: &models.MetricSample{Value: 12.5, Unit: "percentage"}})
	r.Register(fixedCollector{name: "memory"})

	// Execute
	samples := r.Collect(context.Background())

	// Assert
	assert.Equal(t, map[string]models.MetricSample{
		"cpu": {Value: 12.5, Unit: "percentage"},
	}, samples)
}
