package metrics_collectors

import (
	"context"

	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
)

// CPUMetricCollector collects CPU usage metrics.
type CPUMetricCollector struct {
	Logger zerolog.Logger
}

func (c *CPUMetricCollector) Name() string {
	return "cpu"
}

func (c *CPUMetricCollector) Collect(ctx context.Context) *models.MetricSample {
	cpuPercentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		c.Logger.Error().Err(err).Msg("Failed to get CPU usage")
		return nil
	}

	if len(cpuPercentages) == 0 {
		c.Logger.Warn().Msg("CPU usage data is empty")
		return nil
	}

	c.Logger.Debug().Float64("cpu_usage", cpuPercentages[0]).Msg("CPU usage collected")
	return &models.MetricSample{Value: cpuPercentages[0], Unit: "percentage"}
}
