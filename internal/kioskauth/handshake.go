package kioskauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// MinCodeLength is the shortest kiosk code sent to the backend.
const MinCodeLength = 3

// ErrCodeTooShort is returned for a kiosk code under MinCodeLength.
var ErrCodeTooShort = errors.New("kiosk code is too short")

// MACSource derives the device MAC.
type MACSource interface {
	MACAddress(ctx context.Context) string
}

// Binder binds a kiosk code to a MAC on the backend.
type Binder interface {
	BindKioskMAC(ctx context.Context, code, mac string) error
}

// Handshake binds the device to a backend kiosk code and records the
// binding in the Store.
type Handshake struct {
	store   *Store
	macs    MACSource
	binder  Binder
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewHandshake creates a Handshake. A nil limiter disables rate limiting.
func NewHandshake(store *Store, macs MACSource, binder Binder, limiter *rate.Limiter, logger zerolog.Logger) *Handshake {
	return &Handshake{
		store:   store,
		macs:    macs,
		binder:  binder,
		limiter: limiter,
		logger:  logger,
	}
}

// IsAuthenticated reports whether the kiosk is bound.
func (h *Handshake) IsAuthenticated() bool {
	return h.store.IsAuthenticated()
}

// MACAddress derives the MAC shown on the authentication step.
func (h *Handshake) MACAddress(ctx context.Context) string {
	return h.macs.MACAddress(ctx)
}

// Authenticate binds code to mac and persists the binding. An empty mac
// is derived on the spot. Gateway errors are returned unchanged so that
// callers can classify them.
func (h *Handshake) Authenticate(ctx context.Context, code, mac string) error {
	code = strings.TrimSpace(code)
	if len(code) < MinCodeLength {
		return ErrCodeTooShort
	}
	if mac == "" {
		mac = h.macs.MACAddress(ctx)
	}
	mac = strings.ToUpper(mac)

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("bind attempt throttled: %w", err)
		}
	}

	h.logger.Info().Str("code", code).Str("mac", mac).Msg("Binding kiosk")
	if err := h.binder.BindKioskMAC(ctx, code, mac); err != nil {
		h.logger.Error().Err(err).Str("code", code).Msg("Kiosk binding refused")
		return err
	}

	return h.store.SetAuthenticated(code, mac)
}
