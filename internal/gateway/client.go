package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	validatePath      = "/kiosk/validate"
	appointmentPath   = "/kiosk/appointment/{code}"
	personalCheckPath = "/kiosk/check"
	waitingRoomPath   = "/kiosk/send-salle-attente/{code}"
	updateMACPath     = "/kiosk/update-mac"
	invoicePath       = "/kiosk/invoices/{id}/pdf"
	prescriptionPath  = "/kiosk/prescriptions/{id}/pdf"
	kioskStatusPath   = "/kiosk/status/{code}"
)

// Config configures the REST client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	AppVersion string
	CacheTTL   time.Duration
	Location   *time.Location
}

// Client implements Gateway over the kiosk REST API.
type Client struct {
	http     *resty.Client
	cache    *cache.Cache
	location *time.Location
	logger   zerolog.Logger
}

// NewClient creates a Client. A zero CacheTTL disables lookup caching.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-App-Version", cfg.AppVersion)

	var lookups *cache.Cache
	if cfg.CacheTTL > 0 {
		lookups = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	return &Client{
		http:     httpClient,
		cache:    lookups,
		location: location,
		logger:   logger,
	}
}

// ValidateCode checks a code against the backend. A 404 means invalid.
func (c *Client) ValidateCode(ctx context.Context, code string) (bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"code": code}).
		Post(validatePath)
	if err != nil {
		return c.fallbackValidate(code, &transportError{err: err})
	}

	switch {
	case resp.StatusCode() == 404:
		c.logger.Debug().Str("code", code).Msg("Code rejected by backend")
		return false, nil
	case !resp.IsSuccess():
		return false, fmt.Errorf("validate code: %w: status %d", ErrServer, resp.StatusCode())
	}

	var data map[string]any
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		// no JSON body, the status decides
		return resp.StatusCode() == 200, nil
	}
	return validationAccepted(resp.StatusCode(), data), nil
}

func validationAccepted(status int, data map[string]any) bool {
	if data == nil {
		return false
	}
	if success, ok := data["success"].(bool); ok {
		return success
	}
	if s, ok := data["status"].(string); ok && s == "success" {
		return true
	}
	if data["appointment"] != nil || data["rendezVous"] != nil {
		return true
	}
	return status == 200
}

// LookupAppointment fetches the appointment behind code. Results are
// cached for the configured TTL.
func (c *Client) LookupAppointment(ctx context.Context, code string) (*models.PatientInfo, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(code); ok {
			patient := cached.(models.PatientInfo)
			return &patient, nil
		}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("code", code).
		Get(appointmentPath)
	if err != nil {
		return c.fallbackLookup(code, &transportError{err: err})
	}

	switch {
	case resp.StatusCode() == 404:
		return nil, fmt.Errorf("appointment %s: %w", code, ErrNotFound)
	case !resp.IsSuccess():
		return nil, fmt.Errorf("appointment %s: %w: status %d", code, ErrServer, resp.StatusCode())
	}

	var body *appointmentResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("appointment %s: %w: malformed response: %v", code, ErrServer, err)
	}
	if body == nil {
		return nil, fmt.Errorf("appointment %s: %w", code, ErrNotFound)
	}

	patient := body.toPatientInfo(c.location)
	if c.cache != nil {
		c.cache.SetDefault(code, patient)
	}
	return &patient, nil
}

// SearchByPersonalInfo resolves a patient identity to a validation code.
func (c *Client) SearchByPersonalInfo(ctx context.Context, search models.PersonalSearch) (string, error) {
	form := search.Normalized()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"nom":            form.Nom,
			"prenom":         form.Prenom,
			"date_naissance": form.ISODate(),
		}).
		Post(personalCheckPath)
	if err != nil {
		return "", fmt.Errorf("personal search: %w", &transportError{err: err})
	}

	switch {
	case resp.StatusCode() == 404:
		return "", fmt.Errorf("personal search: %w", ErrNotFound)
	case !resp.IsSuccess():
		return "", fmt.Errorf("personal search: %w: status %d", ErrServer, resp.StatusCode())
	}

	var body *appointmentResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("personal search: %w: malformed response: %v", ErrServer, err)
	}
	if body == nil || body.ValidationCode == "" {
		return "", fmt.Errorf("personal search: %w", ErrNotFound)
	}
	return body.ValidationCode, nil
}

// BindKioskMAC binds the kiosk code to mac.
func (c *Client) BindKioskMAC(ctx context.Context, code, mac string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"code":        strings.TrimSpace(code),
			"mac_adresse": strings.ToUpper(mac),
		}).
		Put(updateMACPath)
	if err != nil {
		return fmt.Errorf("bind kiosk: %w", &transportError{err: err})
	}

	switch resp.StatusCode() {
	case 200:
		return nil
	case 404:
		return fmt.Errorf("bind kiosk: %w", ErrInvalidCode)
	case 400:
		return fmt.Errorf("bind kiosk: %w", ErrBadRequest)
	default:
		return fmt.Errorf("bind kiosk: %w: status %d", ErrServer, resp.StatusCode())
	}
}

// SendToWaitingRoom reports the patient as arrived. Only a 200 counts as
// sent; other statuses are a false result, not an error.
func (c *Client) SendToWaitingRoom(ctx context.Context, code string) (bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("code", code).
		Put(waitingRoomPath)
	if err != nil {
		return false, fmt.Errorf("waiting room: %w", &transportError{err: err})
	}
	if resp.StatusCode() != 200 {
		c.logger.Warn().Str("code", code).Int("status", resp.StatusCode()).Msg("Waiting room notification refused")
		return false, nil
	}
	return true, nil
}

// FetchDocument downloads the PDF of kind for an appointment.
func (c *Client) FetchDocument(ctx context.Context, appointmentID int, kind models.DocumentKind) ([]byte, error) {
	path := invoicePath
	switch kind {
	case models.DocumentInvoice:
	case models.DocumentPrescription:
		path = prescriptionPath
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/pdf").
		SetPathParam("id", strconv.Itoa(appointmentID)).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, &transportError{err: err})
	}

	switch {
	case resp.StatusCode() == 404:
		return nil, fmt.Errorf("fetch %s %d: %w", kind, appointmentID, ErrNotFound)
	case resp.StatusCode() != 200:
		return nil, fmt.Errorf("fetch %s %d: %w: status %d", kind, appointmentID, ErrServer, resp.StatusCode())
	case len(resp.Body()) == 0:
		return nil, fmt.Errorf("fetch %s %d: %w: empty document", kind, appointmentID, ErrServer)
	}
	return resp.Body(), nil
}

// KioskStatus returns the backend record of a kiosk code.
func (c *Client) KioskStatus(ctx context.Context, code string) (*models.KioskStatus, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("code", code).
		Get(kioskStatusPath)
	if err != nil {
		return nil, fmt.Errorf("kiosk status: %w", &transportError{err: err})
	}

	switch {
	case resp.StatusCode() == 404:
		return nil, fmt.Errorf("kiosk status %s: %w", code, ErrNotFound)
	case !resp.IsSuccess():
		return nil, fmt.Errorf("kiosk status %s: %w: status %d", code, ErrServer, resp.StatusCode())
	}

	var body kioskAuthResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("kiosk status %s: %w: malformed response: %v", code, ErrServer, err)
	}
	return body.toKioskStatus(), nil
}

// Forget drops any cached lookup for code.
func (c *Client) Forget(code string) {
	if c.cache != nil {
		c.cache.Delete(code)
	}
}

func (c *Client) fallbackValidate(code string, cause error) (bool, error) {
	valid, ok := fallbackValidate(code)
	if !ok {
		c.logger.Error().Err(cause).Msg("Code validation failed")
		return false, fmt.Errorf("validate code: %w", cause)
	}
	c.logger.Warn().Err(cause).Str("code", code).Bool("valid", valid).
		Msg("Backend unreachable, using development fallback table")
	return valid, nil
}

func (c *Client) fallbackLookup(code string, cause error) (*models.PatientInfo, error) {
	patient, ok := fallbackAppointment(code)
	if !ok {
		c.logger.Error().Err(cause).Str("code", code).Msg("Appointment lookup failed")
		return nil, fmt.Errorf("appointment %s: %w", code, cause)
	}
	c.logger.Warn().Err(cause).Str("code", code).Msg("Backend unreachable, using development fallback appointment")
	return &patient, nil
}
