package metrics_collectors

import (
	"context"

	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/mem"
)

// MemoryMetricCollector collects the percentage of used virtual memory.
type MemoryMetricCollector struct {
	Logger zerolog.Logger
}

// Name returns the identifier for the memory metric collector.
func (m *MemoryMetricCollector) Name() string {
	return "memory"
}

// Collect retrieves the percentage of used virtual memory.
func (m *MemoryMetricCollector) Collect(ctx context.Context) *models.MetricSample {
	memStats, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to retrieve memory statistics")
		return nil
	}

	m.Logger.Debug().Float64("memory_usage_percent", memStats.UsedPercent).Msg("Memory usage collected")
	return &models.MetricSample{Value: memStats.UsedPercent, Unit: "percentage"}
}
