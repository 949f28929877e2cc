package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/benmeehan/kiosk-agent/pkg/fingerprint"
	"github.com/rs/zerolog"
)

var (
	ErrPanelClosed    = errors.New("admin panel is closed")
	ErrNoPendingReset = errors.New("no reset awaiting confirmation")
	ErrMissingInput   = errors.New("kiosk code and MAC address are required")
	ErrInvalidMAC     = errors.New("MAC address is malformed")
)

// Store is the local kiosk binding.
type Store interface {
	Identity() models.KioskIdentity
	Reset() error
}

// Fingerprinter derives the device fingerprint.
type Fingerprinter interface {
	DeriveFingerprint(ctx context.Context) fingerprint.Record
	MACAddress(ctx context.Context) string
}

// Backend is the part of the gateway the panel exercises.
type Backend interface {
	KioskStatus(ctx context.Context, code string) (*models.KioskStatus, error)
	BindKioskMAC(ctx context.Context, code, mac string) error
}

// Navigator sends the kiosk back to authentication.
type Navigator interface {
	RequireAuthentication()
}

// FingerprintReport is a freshly derived fingerprint.
type FingerprintReport struct {
	Record fingerprint.Record `json:"record"`
	MAC    string             `json:"mac"`
}

// Binding is the local binding next to what the backend knows.
type Binding struct {
	Local       models.KioskIdentity `json:"local"`
	Remote      *models.KioskStatus  `json:"remote,omitempty"`
	RemoteError string               `json:"remote_error,omitempty"`
}

// Panel is the diagnostic panel behind the hidden gesture.
type Panel struct {
	taps      *TapDetector
	store     Store
	device    Fingerprinter
	backend   Backend
	navigator Navigator
	logger    zerolog.Logger

	mu           sync.Mutex
	open         bool
	pendingReset bool
}

// NewPanel creates a closed Panel.
func NewPanel(taps *TapDetector, store Store, device Fingerprinter, backend Backend, navigator Navigator,
	logger zerolog.Logger) *Panel {
	return &Panel{
		taps:      taps,
		store:     store,
		device:    device,
		backend:   backend,
		navigator: navigator,
		logger:    logger,
	}
}

// Tap feeds the hidden gesture and reports whether the panel is open.
func (p *Panel) Tap() bool {
	if !p.taps.Tap() {
		return p.IsOpen()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		p.open = true
		p.logger.Warn().Msg("Admin panel opened")
	}
	return true
}

// IsOpen reports whether the panel is open.
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Close closes the panel and drops any pending reset.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		p.logger.Info().Msg("Admin panel closed")
	}
	p.open = false
	p.pendingReset = false
}

// Fingerprint derives the fingerprint and MAC again.
func (p *Panel) Fingerprint(ctx context.Context) (FingerprintReport, error) {
	if !p.IsOpen() {
		return FingerprintReport{}, ErrPanelClosed
	}

	record := p.device.DeriveFingerprint(ctx)
	report := FingerprintReport{Record: record, MAC: fingerprint.DeriveMAC(record)}
	if !fingerprint.IsValidMAC(report.MAC) {
		report.MAC = p.device.MACAddress(ctx)
	}
	p.logger.Info().Str("mac", report.MAC).Str("hash", record.Hash).Msg("Fingerprint regenerated")
	return report, nil
}

// Binding returns the local binding and, for a bound kiosk, the backend's
// record of its code. Backend failures are reported in RemoteError.
func (p *Panel) Binding(ctx context.Context) (Binding, error) {
	if !p.IsOpen() {
		return Binding{}, ErrPanelClosed
	}

	binding := Binding{Local: p.store.Identity()}
	if binding.Local.KioskCode == "" {
		return binding, nil
	}

	status, err := p.backend.KioskStatus(ctx, binding.Local.KioskCode)
	if err != nil {
		p.logger.Warn().Err(err).Str("code", binding.Local.KioskCode).Msg("Failed to fetch kiosk status")
		binding.RemoteError = err.Error()
		return binding, nil
	}
	binding.Remote = status
	return binding, nil
}

// RequestReset arms a reset; ConfirmReset carries it out.
func (p *Panel) RequestReset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return ErrPanelClosed
	}
	p.pendingReset = true
	return nil
}

// CancelReset disarms a pending reset.
func (p *Panel) CancelReset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pendingReset = false
}

// ConfirmReset clears the kiosk binding, closes the panel and sends the
// kiosk back to authentication.
func (p *Panel) ConfirmReset() error {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return ErrPanelClosed
	}
	if !p.pendingReset {
		p.mu.Unlock()
		return ErrNoPendingReset
	}
	p.pendingReset = false
	p.mu.Unlock()

	if err := p.store.Reset(); err != nil {
		p.logger.Error().Err(err).Msg("Kiosk reset failed")
		return fmt.Errorf("failed to reset kiosk: %w", err)
	}
	p.logger.Warn().Msg("Kiosk authentication reset from admin panel")

	p.Close()
	p.navigator.RequireAuthentication()
	return nil
}

// TestBind calls the bind endpoint with arbitrary values. Nothing is
// persisted.
func (p *Panel) TestBind(ctx context.Context, code, mac string) error {
	if !p.IsOpen() {
		return ErrPanelClosed
	}

	code = strings.TrimSpace(code)
	mac = strings.ToUpper(strings.TrimSpace(mac))
	if code == "" || mac == "" {
		return ErrMissingInput
	}
	if !fingerprint.IsValidMAC(mac) {
		return ErrInvalidMAC
	}

	err := p.backend.BindKioskMAC(ctx, code, mac)
	p.logger.Info().Err(err).Str("code", code).Str("mac", mac).Msg("Bind endpoint tested")
	return err
}

// Handle runs an admin UI event.
func (p *Panel) Handle(ctx context.Context, event models.UIEvent) models.AdminResponse {
	resp := models.AdminResponse{Name: event.Name}

	var data any
	var err error
	switch event.Name {
	case "tap":
		data = p.Tap()
	case "close":
		p.Close()
	case "fingerprint":
		data, err = p.Fingerprint(ctx)
	case "binding":
		data, err = p.Binding(ctx)
	case "request_reset":
		err = p.RequestReset()
	case "cancel_reset":
		p.CancelReset()
	case "confirm_reset":
		err = p.ConfirmReset()
	case "test_bind":
		err = p.TestBind(ctx, event.Code, event.MAC)
	default:
		err = fmt.Errorf("unknown admin action %q", event.Name)
	}

	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.OK = true
	resp.Data = data
	return resp
}
