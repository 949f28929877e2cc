package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/activity"
	"github.com/benmeehan/kiosk-agent/internal/admin"
	"github.com/benmeehan/kiosk-agent/internal/cardreader"
	"github.com/benmeehan/kiosk-agent/internal/clock"
	"github.com/benmeehan/kiosk-agent/internal/documents"
	"github.com/benmeehan/kiosk-agent/internal/flow"
	"github.com/benmeehan/kiosk-agent/internal/gateway"
	"github.com/benmeehan/kiosk-agent/internal/inactivity"
	"github.com/benmeehan/kiosk-agent/internal/kioskauth"
	"github.com/benmeehan/kiosk-agent/internal/metrics_collectors"
	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/benmeehan/kiosk-agent/internal/service_registry"
	"github.com/benmeehan/kiosk-agent/internal/utils"
	"github.com/benmeehan/kiosk-agent/pkg/encryption"
	"github.com/benmeehan/kiosk-agent/pkg/file"
	"github.com/benmeehan/kiosk-agent/pkg/fingerprint"
	"github.com/benmeehan/kiosk-agent/pkg/mqtt"
	"github.com/benmeehan/kiosk-agent/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the kiosk configuration file")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "kiosk-agent").Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(config.Logging.Level)
	if err != nil {
		logger.Warn().Err(err).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	sessionID := uuid.New().String()
	logger.Info().Str("session_id", sessionID).Str("flow", config.Kiosk.Flow).Msg("Starting kiosk agent")

	// Local state: encrypted file in production, memory in demo mode
	var secureStorage storage.SecureStorage
	if config.Storage.InMemory {
		logger.Warn().Msg("Kiosk state is kept in memory only")
		secureStorage = storage.NewMemoryStore()
	} else {
		encryptionManager := encryption.NewEncryptionManager(fileClient)
		if err := encryptionManager.Initialize(config.Storage.KeyFile, config.Storage.Scope); err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize encryption manager")
		}
		fileStore := storage.NewFileStore(config.Storage.StateFile, fileClient, encryptionManager, logger)
		if err := fileStore.Load(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to load kiosk state")
		}
		secureStorage = fileStore
	}

	authStore := kioskauth.NewStore(secureStorage, logger)
	installationID, err := authStore.GetOrCreateInstallationID()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load installation id")
	}

	host := fingerprint.NewHostProvider(fingerprint.AppIdentity{
		ApplicationID:   config.Kiosk.ApplicationID,
		ApplicationName: config.Kiosk.ApplicationName,
		Version:         config.Kiosk.Version,
		BuildVersion:    config.Kiosk.BuildVersion,
		DeviceType:      config.Kiosk.DeviceType,
	}, fileClient, logger)
	deriver := fingerprint.NewDeriver(host, host, authStore, sessionID, runtime.GOOS, logger)

	location := time.Local
	if config.Gateway.Location != "" {
		if location, err = time.LoadLocation(config.Gateway.Location); err != nil {
			logger.Fatal().Err(err).Str("location", config.Gateway.Location).Msg("Unknown time zone")
		}
	}
	backend := gateway.NewClient(gateway.Config{
		BaseURL:    config.Gateway.BaseURL,
		Timeout:    config.Gateway.Timeout,
		AppVersion: config.Kiosk.Version,
		CacheTTL:   config.Gateway.AppointmentCacheTTL,
		Location:   location,
	}, logger)
	if gateway.FallbackEnabled {
		logger.Warn().Msg("Development fallback data is enabled")
	}

	limiter := rate.NewLimiter(rate.Limit(config.Gateway.BindRate), config.Gateway.BindBurst)
	handshake := kioskauth.NewHandshake(authStore, deriver, backend, limiter, logger)

	workerPool := utils.NewWorkerPool(config.Flow.Workers, logger)
	scheduler := clock.New()

	controller := flow.NewController(flow.Config{
		Flow:                  models.FlowKind(config.Kiosk.Flow),
		AppointmentCodeLength: config.Flow.AppointmentCodeLength,
		PaymentCodeLength:     config.Flow.PaymentCodeLength,
		VerifyAdvanceDelay:    config.Flow.VerifyAdvanceDelay,
		TerminalProcessing:    config.Flow.TerminalProcessing,
		SuccessCountdown:      config.Flow.SuccessCountdown,
	}, flow.Dependencies{
		Gateway:   backend,
		Auth:      handshake,
		Cards:     cardreader.NewSimulated(config.Flow.CardReadDelay, scheduler, logger),
		Documents: documents.NewFileSink(config.Flow.DocumentsDir, fileClient, logger),
		Scheduler: scheduler,
		Runner:    workerPool,
	}, logger)

	bus := activity.NewBus(logger)
	supervisor := inactivity.NewSupervisor(inactivity.Config{
		Timeout:          config.Inactivity.Timeout,
		WarningThreshold: config.Inactivity.WarningThreshold,
		InitialDelay:     config.Inactivity.InitialDelay,
		DisabledRoutes: utils.ConvertSlice(config.Inactivity.DisabledSteps, func(s string) models.Step {
			return models.Step(s)
		}),
	}, bus, scheduler, controller.ReturnHome, logger)
	controller.Subscribe(func(screen flow.Screen) { supervisor.SetRoute(screen.Step) })

	taps := admin.NewTapDetector(config.Admin.TapCount, config.Admin.TapWindow, time.Now)
	panel := admin.NewPanel(taps, authStore, deriver, backend, controller, logger)

	// Initialize the shared MQTT connection
	config.MQTT.ClientID = config.MQTT.ClientID + "-" + installationID
	mqttClient := mqtt.NewMqttService(fileClient, logger)
	if err := mqttClient.Initialize(config.MQTT.Broker, config.MQTT.ClientID, config.MQTT.CACertificate); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	controller.Start()

	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, logger)
	if err := serviceRegistry.RegisterServices(config, service_registry.Components{
		InstallationID: installationID,
		Flow:           controller,
		Activity:       bus,
		Admin:          panel,
		Identity:       authStore,
		Metrics:        metrics_collectors.NewMetricsRegistry(config.Services.Status.Metrics, config.Flow.DocumentsDir, logger),
		Supervisor:     supervisor,
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register services")
	}
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Strs("services", serviceRegistry.Services()).Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Some services failed to stop")
	}
	controller.Close()
	workerPool.Shutdown()
	mqttClient.Disconnect(250)
}
