package metrics_collectors

import (
	"context"

	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/disk"
)

// DiskMetricCollector reports the free space left for downloaded documents.
type DiskMetricCollector struct {
	Path   string
	Logger zerolog.Logger
}

func (d *DiskMetricCollector) Name() string {
	return "disk"
}

func (d *DiskMetricCollector) Collect(ctx context.Context) *models.MetricSample {
	path := d.Path
	if path == "" {
		path = "/"
	}
	diskStats, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		d.Logger.Error().Err(err).Str("path", path).Msg("Failed to get disk usage")
		return nil
	}
	return &models.MetricSample{Value: float64(diskStats.Free), Unit: "bytes"}
}
