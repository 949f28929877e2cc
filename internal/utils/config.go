package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/benmeehan/kiosk-agent/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Kiosk struct {
		Flow            string `yaml:"flow"`             // Flow run by this kiosk: checkin or payment
		ApplicationID   string `yaml:"application_id"`   // Application identifier used in the fingerprint
		ApplicationName string `yaml:"application_name"` // Human readable application name
		Version         string `yaml:"version"`          // Semantic application version, sent as X-App-Version
		BuildVersion    string `yaml:"build_version"`    // Build number
		DeviceType      int    `yaml:"device_type"`      // Device type flag (0 unknown, 1 phone, 2 tablet, 3 desktop, 4 tv)
	} `yaml:"kiosk"`

	Storage struct {
		StateFile string `yaml:"state_file"` // Path to the encrypted kiosk state file
		KeyFile   string `yaml:"key_file"`   // Path to the master key, created on first run
		Scope     string `yaml:"scope"`      // Key derivation scope of the state file
		InMemory  bool   `yaml:"in_memory"`  // Keep state in memory only (demo mode)
	} `yaml:"storage"`

	Gateway struct {
		BaseURL             string        `yaml:"base_url"`              // Backend API base URL
		Timeout             time.Duration `yaml:"timeout"`               // Timeout applied to every backend call
		AppointmentCacheTTL time.Duration `yaml:"appointment_cache_ttl"` // Lifetime of cached appointment lookups
		BindRate            float64       `yaml:"bind_rate"`             // Bind attempts allowed per second
		BindBurst           int           `yaml:"bind_burst"`            // Bind attempts allowed in a burst
		Location            string        `yaml:"location"`              // Time zone used to display appointment times
	} `yaml:"gateway"`

	Flow struct {
		AppointmentCodeLength int           `yaml:"appointment_code_length"` // Digits of a check-in code
		PaymentCodeLength     int           `yaml:"payment_code_length"`     // Digits of a payment code
		CardReadDelay         time.Duration `yaml:"card_read_delay"`         // Simulated card read duration
		VerifyAdvanceDelay    time.Duration `yaml:"verify_advance_delay"`    // Delay before leaving the verification step
		TerminalProcessing    time.Duration `yaml:"terminal_processing"`     // Simulated payment terminal duration
		SuccessCountdown      time.Duration `yaml:"success_countdown"`       // Countdown on the success step
		DocumentsDir          string        `yaml:"documents_dir"`           // Directory where downloaded documents are stored
		Workers               int           `yaml:"workers"`                 // Workers running backend calls
	} `yaml:"flow"`

	Inactivity struct {
		Timeout          int      `yaml:"timeout"`           // Visible countdown length (in seconds)
		WarningThreshold int      `yaml:"warning_threshold"` // Seconds left when the countdown turns urgent
		InitialDelay     int      `yaml:"initial_delay"`     // Silent seconds before the countdown appears
		DisabledSteps    []string `yaml:"disabled_steps"`    // Steps where the supervisor is inert
	} `yaml:"inactivity"`

	Admin struct {
		TapCount  int           `yaml:"tap_count"`  // Taps needed to open the admin panel
		TapWindow time.Duration `yaml:"tap_window"` // Maximum gap between two taps
	} `yaml:"admin"`

	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID prefix
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate, empty for plain TCP
		TopicPrefix   string `yaml:"topic_prefix"`   // Prefix of every kiosk topic
	} `yaml:"mqtt"`

	Services struct {
		UIBridge struct {
			Enabled bool `yaml:"enabled"` // Enable/disable the UI bridge
			QOS     int  `yaml:"qos"`     // MQTT QoS level for UI messages
		} `yaml:"ui_bridge"`

		Status struct {
			Enabled  bool          `yaml:"enabled"`  // Enable/disable the status heartbeat
			Interval time.Duration `yaml:"interval"` // Interval between status reports
			QOS      int           `yaml:"qos"`      // MQTT QoS level for status messages
			Metrics  []string      `yaml:"metrics"`  // Host metrics attached to each report (cpu, memory, disk)
		} `yaml:"status"`
	} `yaml:"services"`

	Logging struct {
		Level string `yaml:"level"` // zerolog level name
	} `yaml:"logging"`
}

// LoadConfig loads the YAML configuration from the specified file, fills
// defaults and validates it.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Kiosk.Flow == "" {
		c.Kiosk.Flow = "checkin"
	}
	if c.Kiosk.Version == "" {
		c.Kiosk.Version = "1.0.0"
	}
	if c.Storage.Scope == "" {
		c.Storage.Scope = "kiosk"
	}
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = "https://borne.techfawn.fr/api"
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 15 * time.Second
	}
	if c.Gateway.AppointmentCacheTTL == 0 {
		c.Gateway.AppointmentCacheTTL = 30 * time.Second
	}
	if c.Gateway.BindRate == 0 {
		c.Gateway.BindRate = 0.2
	}
	if c.Gateway.BindBurst == 0 {
		c.Gateway.BindBurst = 3
	}
	if c.Flow.AppointmentCodeLength == 0 {
		c.Flow.AppointmentCodeLength = 6
	}
	if c.Flow.PaymentCodeLength == 0 {
		c.Flow.PaymentCodeLength = 6
	}
	if c.Flow.CardReadDelay == 0 {
		c.Flow.CardReadDelay = 1500 * time.Millisecond
	}
	if c.Flow.VerifyAdvanceDelay == 0 {
		c.Flow.VerifyAdvanceDelay = 3 * time.Second
	}
	if c.Flow.TerminalProcessing == 0 {
		c.Flow.TerminalProcessing = 2 * time.Second
	}
	if c.Flow.SuccessCountdown == 0 {
		c.Flow.SuccessCountdown = 20 * time.Second
	}
	if c.Flow.Workers == 0 {
		c.Flow.Workers = 4
	}
	if c.Inactivity.Timeout == 0 {
		c.Inactivity.Timeout = 30
	}
	if c.Inactivity.WarningThreshold == 0 {
		c.Inactivity.WarningThreshold = 10
	}
	if c.Inactivity.InitialDelay == 0 {
		c.Inactivity.InitialDelay = 5
	}
	if c.Inactivity.DisabledSteps == nil {
		c.Inactivity.DisabledSteps = []string{"home", "kiosk_auth"}
	}
	if c.Admin.TapCount == 0 {
		c.Admin.TapCount = 5
	}
	if c.Admin.TapWindow == 0 {
		c.Admin.TapWindow = 2 * time.Second
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "kiosk"
	}
	if c.Services.Status.Interval == 0 {
		c.Services.Status.Interval = time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	var errs []error

	if c.Kiosk.Flow != "checkin" && c.Kiosk.Flow != "payment" {
		errs = append(errs, fmt.Errorf("kiosk.flow must be checkin or payment, got %q", c.Kiosk.Flow))
	}
	version, err := semver.NewVersion(c.Kiosk.Version)
	if err != nil {
		errs = append(errs, fmt.Errorf("kiosk.version: %w", err))
	} else {
		c.Kiosk.Version = version.String()
	}
	if c.Flow.AppointmentCodeLength < 1 || c.Flow.PaymentCodeLength < 1 {
		errs = append(errs, errors.New("flow code lengths must be positive"))
	}
	if c.Inactivity.InitialDelay < 0 || c.Inactivity.Timeout < 1 {
		errs = append(errs, errors.New("inactivity timings must be positive"))
	}
	if c.Admin.TapCount < 2 {
		errs = append(errs, errors.New("admin.tap_count must be at least 2"))
	}
	if !c.Storage.InMemory && (c.Storage.StateFile == "" || c.Storage.KeyFile == "") {
		errs = append(errs, errors.New("storage.state_file and storage.key_file are required"))
	}

	return errors.Join(errs...)
}
