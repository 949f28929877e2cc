package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/activity"
	"github.com/benmeehan/kiosk-agent/internal/flow"
	"github.com/benmeehan/kiosk-agent/internal/inactivity"
	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/benmeehan/kiosk-agent/pkg/mqtt"
	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const (
	uiEventsSuffix     = "/ui/events"
	uiStateSuffix      = "/ui/state"
	uiInactivitySuffix = "/ui/inactivity"
	uiAdminSuffix      = "/ui/admin"

	uiEventBuffer  = 64
	publishTimeout = 5 * time.Second
)

// FlowDriver is the session engine driven by the UI.
type FlowDriver interface {
	Dispatch(action flow.Action) error
	Subscribe(fn func(flow.Screen)) (unsubscribe func())
	Current() flow.Screen
}

// ActivityPublisher receives every user interaction.
type ActivityPublisher interface {
	Publish(src activity.Source)
}

// AdminHandler runs admin panel events.
type AdminHandler interface {
	Handle(ctx context.Context, event models.UIEvent) models.AdminResponse
}

var activitySources = map[string]activity.Source{
	models.UIEventTap:          activity.SourceTap,
	models.UIEventKeyboardShow: activity.SourceKeyboardShow,
	models.UIEventKeyboardHide: activity.SourceKeyboardHide,
	models.UIEventForeground:   activity.SourceForeground,
	models.UIEventAction:       activity.SourceAction,
	models.UIEventAdmin:        activity.SourceTap,
}

// UIBridgeService connects the touchscreen client to the kiosk over MQTT.
// Events arrive on <base>/ui/events and are handled one at a time in
// arrival order. Screens are published retained on <base>/ui/state.
type UIBridgeService struct {
	BaseTopic  string
	QOS        int
	MqttClient mqtt.MQTTClient
	Flow       FlowDriver
	Activity   ActivityPublisher
	Admin      AdminHandler
	Logger     zerolog.Logger

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	events      chan models.UIEvent
	unsubscribe func()
	wg          sync.WaitGroup
}

// NewUIBridgeService initializes a new UIBridgeService.
func NewUIBridgeService(baseTopic string, qos int, mqttClient mqtt.MQTTClient, flowDriver FlowDriver,
	activityPublisher ActivityPublisher, admin AdminHandler, logger zerolog.Logger) *UIBridgeService {
	return &UIBridgeService{
		BaseTopic:  baseTopic,
		QOS:        qos,
		MqttClient: mqttClient,
		Flow:       flowDriver,
		Activity:   activityPublisher,
		Admin:      admin,
		Logger:     logger,
	}
}

// Start subscribes to UI events and publishes the current screen.
func (s *UIBridgeService) Start() error {
	s.mu.Lock()
	if s.ctx != nil {
		s.mu.Unlock()
		s.Logger.Warn().Msg("UIBridgeService is already running")
		return errors.New("ui bridge service is already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan models.UIEvent, uiEventBuffer)
	s.ctx, s.cancel, s.events = ctx, cancel, events
	s.mu.Unlock()

	topic := s.BaseTopic + uiEventsSuffix
	token := s.MqttClient.Subscribe(topic, byte(s.QOS), s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		s.Logger.Error().Err(err).Str("topic", topic).Msg("Failed to subscribe to UI events")
		cancel()
		s.mu.Lock()
		s.ctx, s.cancel = nil, nil
		s.mu.Unlock()
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runEventLoop(ctx, events)
	}()

	unsubscribe := s.Flow.Subscribe(s.PublishScreen)
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	s.PublishScreen(s.Flow.Current())

	s.Logger.Info().Str("topic", topic).Msg("UIBridgeService started successfully")
	return nil
}

// Stop unsubscribes and waits for the event loop to drain.
func (s *UIBridgeService) Stop() error {
	if !s.running() {
		s.Logger.Warn().Msg("UIBridgeService is not running")
		return errors.New("ui bridge service is not running")
	}

	token := s.MqttClient.Unsubscribe(s.BaseTopic + uiEventsSuffix)
	token.Wait()
	if err := token.Error(); err != nil {
		s.Logger.Error().Err(err).Msg("Failed to unsubscribe from UI events")
	}

	// the flow listener is removed outside mu; it takes the controller lock
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.cancel()
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}

	s.wg.Wait()

	s.mu.Lock()
	s.ctx, s.cancel = nil, nil
	s.mu.Unlock()

	s.Logger.Info().Msg("UIBridgeService stopped successfully")
	return nil
}

// PublishScreen publishes screen as the retained UI state.
func (s *UIBridgeService) PublishScreen(screen flow.Screen) {
	s.publish(s.BaseTopic+uiStateSuffix, true, screen)
}

// PublishInactivity publishes the supervisor state.
func (s *UIBridgeService) PublishInactivity(state inactivity.State) {
	if !s.running() {
		return
	}
	s.publish(s.BaseTopic+uiInactivitySuffix, true, state)
}

func (s *UIBridgeService) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx != nil
}

// handleMessage runs on the MQTT router; it only queues the event.
func (s *UIBridgeService) handleMessage(_ MQTT.Client, msg MQTT.Message) {
	var event models.UIEvent
	if err := json.Unmarshal(msg.Payload(), &event); err != nil {
		s.Logger.Error().Err(err).Str("topic", msg.Topic()).Msg("Failed to parse UI event")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return
	}
	select {
	case s.events <- event:
	default:
		s.Logger.Warn().Str("type", event.Type).Str("name", event.Name).Msg("UI event queue full, event dropped")
	}
}

func (s *UIBridgeService) runEventLoop(ctx context.Context, events <-chan models.UIEvent) {
	for {
		select {
		case event := <-events:
			s.HandleEvent(ctx, event)
		case <-ctx.Done():
			s.Logger.Info().Msg("UIBridgeService stopping gracefully")
			return
		}
	}
}

// HandleEvent routes one UI event. Every recognised event counts as
// activity; actions go to the flow and admin events to the panel.
func (s *UIBridgeService) HandleEvent(ctx context.Context, event models.UIEvent) {
	src, ok := activitySources[event.Type]
	if !ok {
		s.Logger.Warn().Str("type", event.Type).Msg("Unknown UI event type")
		return
	}
	s.Activity.Publish(src)

	switch event.Type {
	case models.UIEventAction:
		action, ok := flow.ActionFromEvent(event)
		if !ok {
			s.Logger.Warn().Str("name", event.Name).Msg("Unknown UI action")
			return
		}
		if err := s.Flow.Dispatch(action); err != nil {
			s.Logger.Debug().Err(err).Str("name", event.Name).Msg("UI action rejected")
		}

	case models.UIEventAdmin:
		resp := s.Admin.Handle(ctx, event)
		s.publish(s.BaseTopic+uiAdminSuffix, false, resp)
	}
}

func (s *UIBridgeService) publish(topic string, retained bool, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.Logger.Error().Err(err).Str("topic", topic).Msg("Failed to serialize UI message")
		return
	}

	token := s.MqttClient.Publish(topic, byte(s.QOS), retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		s.Logger.Error().Str("topic", topic).Msg("Timed out publishing UI message")
		return
	}
	if err := token.Error(); err != nil {
		s.Logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish UI message")
	}
}
