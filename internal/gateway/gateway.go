package gateway

import (
	"context"
	"errors"

	"github.com/benmeehan/kiosk-agent/internal/models"
)

// Error classes returned by the gateway. Wrapped errors keep the class, so
// callers test with errors.Is.
var (
	// ErrNotFound is a semantic 404: the code or person is unknown.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCode is a 404 from the kiosk bind endpoint.
	ErrInvalidCode = errors.New("invalid kiosk code")
	// ErrBadRequest is a 400 from the backend.
	ErrBadRequest = errors.New("bad request")
	// ErrServer is any other non-success response, including malformed bodies.
	ErrServer = errors.New("server error")
	// ErrTransport is a network failure or timeout. It is also an ErrServer.
	ErrTransport = errors.New("transport failure")
)

// Gateway is the backend the kiosk talks to.
type Gateway interface {
	// ValidateCode reports whether code names a known appointment or payment.
	ValidateCode(ctx context.Context, code string) (bool, error)
	// LookupAppointment returns the appointment for code, or ErrNotFound.
	LookupAppointment(ctx context.Context, code string) (*models.PatientInfo, error)
	// SearchByPersonalInfo resolves a person to a validation code, or ErrNotFound.
	SearchByPersonalInfo(ctx context.Context, search models.PersonalSearch) (string, error)
	// BindKioskMAC binds this device to a kiosk code. It returns nil,
	// ErrInvalidCode, ErrBadRequest or ErrServer.
	BindKioskMAC(ctx context.Context, code, mac string) error
	// SendToWaitingRoom notifies the agenda that the patient arrived.
	SendToWaitingRoom(ctx context.Context, code string) (bool, error)
	// FetchDocument downloads a PDF for an appointment.
	FetchDocument(ctx context.Context, appointmentID int, kind models.DocumentKind) ([]byte, error)
	// KioskStatus returns the backend view of a kiosk code, or ErrNotFound.
	KioskStatus(ctx context.Context, code string) (*models.KioskStatus, error)
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return "transport failure: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func (e *transportError) Is(target error) bool {
	return target == ErrTransport || target == ErrServer
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
