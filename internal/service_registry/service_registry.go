package service_registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/kiosk-agent/internal/inactivity"
	"github.com/benmeehan/kiosk-agent/internal/registry"
	"github.com/benmeehan/kiosk-agent/internal/services"
	"github.com/benmeehan/kiosk-agent/internal/utils"
	"github.com/benmeehan/kiosk-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Components are the already built parts the services are assembled from.
type Components struct {
	InstallationID string
	Flow           services.FlowDriver
	Activity       services.ActivityPublisher
	Admin          services.AdminHandler
	Identity       services.IdentitySource
	Metrics        services.HostMetrics
	Supervisor     *inactivity.Supervisor
}

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	mqttClient  mqtt.MQTTClient
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]registry.Service),
		mqttClient: mqttClient,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Services returns the registered service names in start order.
func (sr *ServiceRegistry) Services() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on configuration.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, parts Components) error {
	baseTopic := config.MQTT.TopicPrefix + "/" + parts.InstallationID

	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "inactivity",
			enabled: parts.Supervisor != nil,
			constructor: func() (registry.Service, error) {
				return parts.Supervisor, nil
			},
		},
		{
			name:    "ui_bridge",
			enabled: config.Services.UIBridge.Enabled,
			constructor: func() (registry.Service, error) {
				if parts.Flow == nil || parts.Activity == nil || parts.Admin == nil {
					return nil, errors.New("ui bridge requires the flow, activity and admin components")
				}
				bridge := services.NewUIBridgeService(
					baseTopic,
					config.Services.UIBridge.QOS,
					sr.mqttClient,
					parts.Flow,
					parts.Activity,
					parts.Admin,
					sr.Logger,
				)
				if parts.Supervisor != nil {
					parts.Supervisor.OnChange(bridge.PublishInactivity)
				}
				return bridge, nil
			},
		},
		{
			name:    "status",
			enabled: config.Services.Status.Enabled,
			constructor: func() (registry.Service, error) {
				if parts.Identity == nil || parts.Flow == nil {
					return nil, errors.New("status service requires the identity and flow components")
				}
				return services.NewStatusService(
					baseTopic+"/status",
					config.Services.Status.Interval,
					config.Services.Status.QOS,
					parts.Identity,
					parts.Flow,
					parts.Metrics,
					sr.mqttClient,
					sr.Logger,
				), nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
