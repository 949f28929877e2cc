package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/flow"
	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/benmeehan/kiosk-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// IdentitySource reports the local kiosk binding.
type IdentitySource interface {
	Identity() models.KioskIdentity
}

// ScreenSource reports the displayed screen.
type ScreenSource interface {
	Current() flow.Screen
}

// HostMetrics samples the host the kiosk runs on.
type HostMetrics interface {
	Collect(ctx context.Context) map[string]models.MetricSample
}

// StatusService periodically publishes the kiosk status.
type StatusService struct {
	PubTopic   string
	Interval   time.Duration
	QOS        int
	Identity   IdentitySource
	Screens    ScreenSource
	Metrics    HostMetrics
	MqttClient mqtt.MQTTClient
	Logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStatusService initializes a new StatusService. metrics may be nil.
func NewStatusService(pubTopic string, interval time.Duration, qos int, identity IdentitySource, screens ScreenSource,
	metrics HostMetrics, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *StatusService {

	return &StatusService{
		PubTopic:   pubTopic,
		Interval:   interval,
		QOS:        qos,
		Identity:   identity,
		Screens:    screens,
		Metrics:    metrics,
		MqttClient: mqttClient,
		Logger:     logger,
	}
}

// Start launches the status loop in a separate goroutine.
func (h *StatusService) Start() error {
	if h.ctx != nil {
		h.Logger.Warn().Msg("StatusService is already running")
		return errors.New("status service is already running")
	}

	h.ctx, h.cancel = context.WithCancel(context.Background())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runStatusLoop(h.ctx)
	}()

	h.Logger.Info().Str("topic", h.PubTopic).Msg("StatusService started successfully")
	return nil
}

// Stop gracefully stops the status service.
func (h *StatusService) Stop() error {
	if h.ctx == nil {
		h.Logger.Warn().Msg("StatusService is not running")
		return errors.New("status service is not running")
	}

	h.cancel()
	h.wg.Wait()

	h.ctx = nil
	h.cancel = nil

	h.Logger.Info().Msg("StatusService stopped successfully")
	return nil
}

func (h *StatusService) runStatusLoop(ctx context.Context) {
	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.publishStatus(ctx)

		case <-ctx.Done():
			h.Logger.Info().Msg("StatusService stopping gracefully")
			return
		}
	}
}

func (h *StatusService) publishStatus(ctx context.Context) {
	identity := h.Identity.Identity()
	report := models.StatusReport{
		InstallationID: identity.InstallationID,
		KioskCode:      identity.KioskCode,
		MACAddress:     identity.MACAddress,
		Authenticated:  identity.Authenticated,
		Step:           h.Screens.Current().Step,
		Timestamp:      time.Now(),
	}
	if h.Metrics != nil {
		report.Host = h.Metrics.Collect(ctx)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		h.Logger.Error().Err(err).Msg("Failed to serialize status report")
		return
	}

	token := h.MqttClient.Publish(h.PubTopic, byte(h.QOS), false, payload)
	token.Wait()

	if err := token.Error(); err != nil {
		h.Logger.Error().Err(err).Msg("Failed to publish status report")
	} else {
		h.Logger.Debug().Str("step", string(report.Step)).Msg("Status report published successfully")
	}
}
