package fingerprint

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Placeholders substituted for attributes the platform does not report.
const (
	UnknownApplicationID   = "unknown-app-id"
	DefaultApplicationName = "MedicalApp"
	DefaultVersion         = "1.0.0"
	DefaultBuildVersion    = "1"
	UnknownBrand           = "unknown-brand"
	UnknownDesign          = "unknown-design"
	UnknownDevice          = "unknown-device"
	UnknownManufacturer    = "unknown-manufacturer"
	UnknownModelID         = "unknown-model-id"
	UnknownModel           = "unknown-model"
	UnknownOSVersion       = "0.0"
	UnknownProduct         = "unknown-product"
	UnknownNetwork         = "unknown"
	UnknownIPAddress       = "0.0.0.0"
)

// DeviceAttributes is what a DeviceInfoProvider reports. Empty strings and
// zero values mean "not available".
type DeviceAttributes struct {
	ApplicationID      string
	ApplicationName    string
	ApplicationVersion string
	BuildVersion       string
	Brand              string
	DesignName         string
	DeviceName         string
	DeviceType         int
	Manufacturer       string
	ModelID            string
	ModelName          string
	OSName             string
	OSVersion          string
	PlatformAPILevel   int
	ProductName        string
	TotalMemory        uint64
	IsDevice           bool
}

// DeviceInfoProvider reports platform attributes.
type DeviceInfoProvider interface {
	DeviceAttributes(ctx context.Context) (DeviceAttributes, error)
}

// NetworkInfoProvider reports the active network kind and address.
type NetworkInfoProvider interface {
	NetworkState(ctx context.Context) (kind string, ip string, err error)
}

// InstallationIDSource returns the persisted installation id.
type InstallationIDSource interface {
	GetOrCreateInstallationID() (string, error)
}

// Record is a complete fingerprint with placeholders already applied.
type Record struct {
	ApplicationID      string `json:"application_id"`
	ApplicationName    string `json:"application_name"`
	ApplicationVersion string `json:"application_version"`
	BuildVersion       string `json:"build_version"`
	Brand              string `json:"brand"`
	DesignName         string `json:"design_name"`
	DeviceName         string `json:"device_name"`
	DeviceType         int    `json:"device_type"`
	Manufacturer       string `json:"manufacturer"`
	ModelID            string `json:"model_id"`
	ModelName          string `json:"model_name"`
	OSName             string `json:"os_name"`
	OSVersion          string `json:"os_version"`
	PlatformAPILevel   int    `json:"platform_api_level"`
	ProductName        string `json:"product_name"`
	TotalMemory        uint64 `json:"total_memory"`
	IsDevice           bool   `json:"is_device"`
	NetworkState       string `json:"network_state"`
	IPAddress          string `json:"ip_address"`
	InstallationID     string `json:"installation_id"`
	SessionID          string `json:"session_id"`
	Timestamp          int64  `json:"timestamp"`
	Hash               string `json:"hash"`
}

// Deriver collects fingerprints and derives pseudo-MACs.
type Deriver struct {
	device       DeviceInfoProvider
	network      NetworkInfoProvider
	installation InstallationIDSource
	sessionID    string
	osName       string
	logger       zerolog.Logger

	now  func() time.Time
	mu   sync.Mutex
	rand *rand.Rand
}

// NewDeriver creates a Deriver. osName is used when the device provider
// reports no OS name. sessionID identifies this process run.
func NewDeriver(device DeviceInfoProvider, network NetworkInfoProvider, installation InstallationIDSource,
	sessionID, osName string, logger zerolog.Logger) *Deriver {
	return &Deriver{
		device:       device,
		network:      network,
		installation: installation,
		sessionID:    sessionID,
		osName:       osName,
		logger:       logger,
		now:          time.Now,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// DeriveFingerprint collects the current attributes. Missing data is
// replaced by placeholders; it never fails.
func (d *Deriver) DeriveFingerprint(ctx context.Context) Record {
	var attrs DeviceAttributes
	if d.device != nil {
		var err error
		attrs, err = d.device.DeviceAttributes(ctx)
		if err != nil {
			d.logger.Warn().Err(err).Msg("Device attributes unavailable, using placeholders")
		}
	}

	networkKind, ip := UnknownNetwork, UnknownIPAddress
	if d.network != nil {
		kind, addr, err := d.network.NetworkState(ctx)
		if err != nil {
			d.logger.Warn().Err(err).Msg("Network state unavailable")
		}
		networkKind = orDefault(kind, UnknownNetwork)
		ip = orDefault(addr, UnknownIPAddress)
	}

	var installationID string
	if d.installation != nil {
		id, err := d.installation.GetOrCreateInstallationID()
		if err != nil {
			d.logger.Error().Err(err).Msg("Installation id not persisted")
		}
		installationID = id
	}

	r := Record{
		ApplicationID:      orDefault(attrs.ApplicationID, UnknownApplicationID),
		ApplicationName:    orDefault(attrs.ApplicationName, DefaultApplicationName),
		ApplicationVersion: orDefault(attrs.ApplicationVersion, DefaultVersion),
		BuildVersion:       orDefault(attrs.BuildVersion, DefaultBuildVersion),
		Brand:              orDefault(attrs.Brand, UnknownBrand),
		DesignName:         orDefault(attrs.DesignName, UnknownDesign),
		DeviceName:         orDefault(attrs.DeviceName, UnknownDevice),
		DeviceType:         attrs.DeviceType,
		Manufacturer:       orDefault(attrs.Manufacturer, UnknownManufacturer),
		ModelID:            orDefault(attrs.ModelID, UnknownModelID),
		ModelName:          orDefault(attrs.ModelName, UnknownModel),
		OSName:             orDefault(attrs.OSName, orDefault(d.osName, "unknown")),
		OSVersion:          orDefault(attrs.OSVersion, UnknownOSVersion),
		PlatformAPILevel:   attrs.PlatformAPILevel,
		ProductName:        orDefault(attrs.ProductName, UnknownProduct),
		TotalMemory:        attrs.TotalMemory,
		IsDevice:           attrs.IsDevice,
		NetworkState:       networkKind,
		IPAddress:          ip,
		InstallationID:     installationID,
		SessionID:          d.sessionID,
		Timestamp:          d.now().UnixMilli(),
	}
	r.Hash = CompositeHash(r)
	return r
}

// CompositeHash hashes the stable identifying fields of r joined by "|".
// Empty fields are skipped.
func CompositeHash(r Record) string {
	fields := []string{
		r.ApplicationID,
		r.Brand,
		r.ModelName,
		r.ModelID,
		r.OSName,
		r.OSVersion,
		r.Manufacturer,
		r.ProductName,
		strconv.Itoa(r.DeviceType),
		strconv.Itoa(r.PlatformAPILevel),
		strconv.FormatUint(r.TotalMemory, 10),
		r.InstallationID,
		r.BuildVersion,
		strconv.FormatBool(r.IsDevice),
	}

	kept := fields[:0]
	for _, f := range fields {
		if f != "" {
			kept = append(kept, f)
		}
	}
	return Hash(strings.Join(kept, "|"))
}

// MACAddress derives the pseudo-MAC for the current device. Any failure
// during derivation yields a fallback MAC instead.
func (d *Deriver) MACAddress(ctx context.Context) (mac string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Msg("MAC derivation failed, using fallback")
			mac = d.Fallback()
		}
	}()

	mac = DeriveMAC(d.DeriveFingerprint(ctx))
	if !IsValidMAC(mac) {
		d.logger.Error().Str("mac", mac).Msg("Derived MAC malformed, using fallback")
		return d.Fallback()
	}
	return mac
}

// Fallback returns a time and random seeded MAC.
func (d *Deriver) Fallback() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return FallbackMAC(d.now(), d.rand)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
