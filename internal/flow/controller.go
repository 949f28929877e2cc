package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/clock"
	"github.com/benmeehan/kiosk-agent/internal/gateway"
	"github.com/benmeehan/kiosk-agent/internal/kioskauth"
	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/rs/zerolog"
)

// Errors returned by Dispatch. A rejected action leaves the screen unchanged.
var (
	ErrBusy              = errors.New("a request is already in progress")
	ErrActionNotAllowed  = errors.New("action not allowed on this step")
	ErrSubmissionBlocked = errors.New("form is incomplete")
)

// Runner executes backend calls off the dispatching goroutine.
type Runner interface {
	Submit(task func())
}

// CardReader reads a health or insurance card.
type CardReader interface {
	Read(ctx context.Context, kind models.CardKind) error
}

// DocumentSink hands a downloaded document to the platform.
type DocumentSink interface {
	Deliver(ctx context.Context, appointmentID int, kind models.DocumentKind, data []byte) error
}

// Authenticator binds the kiosk to a backend code.
type Authenticator interface {
	IsAuthenticated() bool
	MACAddress(ctx context.Context) string
	Authenticate(ctx context.Context, code, mac string) error
}

// Config holds the flow timings and code lengths.
type Config struct {
	Flow                  models.FlowKind
	AppointmentCodeLength int
	PaymentCodeLength     int
	VerifyAdvanceDelay    time.Duration
	TerminalProcessing    time.Duration
	SuccessCountdown      time.Duration
}

// Dependencies are the capabilities the Controller drives.
type Dependencies struct {
	Gateway   gateway.Gateway
	Auth      Authenticator
	Cards     CardReader
	Documents DocumentSink
	Scheduler clock.Scheduler
	Runner    Runner
}

// Screen is a snapshot of what the kiosk displays.
type Screen struct {
	Step        models.Step           `json:"step"`
	Flow        models.FlowKind       `json:"flow"`
	Session     models.SessionContext `json:"session"`
	CodeInput   string                `json:"code_input"`
	CodeLength  int                   `json:"code_length"`
	Search      models.PersonalSearch `json:"search"`
	CanSubmit   bool                  `json:"can_submit"`
	Busy        bool                  `json:"busy"`
	Processing  bool                  `json:"processing"`
	Downloading models.DocumentKind   `json:"downloading,omitempty"`
	Countdown   int                   `json:"countdown,omitempty"`
	DeviceMAC   string                `json:"device_mac,omitempty"`
}

type effect func()

// Controller runs the kiosk session state machine. Every step activation
// gets a new epoch; timers and backend results carry the epoch they were
// started in and are dropped once it has passed.
type Controller struct {
	cfg       Config
	gateway   gateway.Gateway
	auth      Authenticator
	cards     CardReader
	documents DocumentSink
	scheduler clock.Scheduler
	runner    Runner
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	screen       Screen
	epoch        uint64
	timers       []clock.Timer
	countdown    clock.Timer
	countdownGen uint64
	listeners    map[int]func(Screen)
	nextListener int

	// held while listeners run so that snapshots arrive in order
	notifyMu sync.Mutex
}

// NewController creates a Controller. Call Start to show the first step.
func NewController(cfg Config, deps Dependencies, logger zerolog.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:       cfg,
		gateway:   deps.Gateway,
		auth:      deps.Auth,
		cards:     deps.Cards,
		documents: deps.Documents,
		scheduler: deps.Scheduler,
		runner:    deps.Runner,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		listeners: make(map[int]func(Screen)),
	}
	c.screen = Screen{
		Step:       models.StepKioskAuth,
		Flow:       cfg.Flow,
		Session:    models.SessionContext{Flow: cfg.Flow},
		CodeLength: c.codeLength(),
	}
	return c
}

// Start shows Home on an authenticated kiosk and KioskAuth otherwise.
func (c *Controller) Start() {
	c.mu.Lock()
	step := models.StepKioskAuth
	if c.auth.IsAuthenticated() {
		step = models.StepHome
	}
	c.commit(c.enter(step))
}

// Close cancels pending timers and in-flight requests.
func (c *Controller) Close() {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimersLocked()
	c.epoch++
}

// Subscribe registers fn for every screen change. Listeners run in the
// order of the changes and must not call back into the Controller.
func (c *Controller) Subscribe(fn func(Screen)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Current returns the displayed screen.
func (c *Controller) Current() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

// ReturnHome abandons the session. It does nothing on the kiosk
// authentication step.
func (c *Controller) ReturnHome() {
	if err := c.Dispatch(GoHome{}); err != nil {
		c.logger.Debug().Err(err).Msg("Return home ignored")
	}
}

// RequireAuthentication forces the kiosk back to the authentication step.
func (c *Controller) RequireAuthentication() {
	c.mu.Lock()
	c.commit(c.enter(models.StepKioskAuth))
}

// Dispatch applies action to the current step.
func (c *Controller) Dispatch(action Action) error {
	c.mu.Lock()
	effects, err := c.reduce(action)
	if err != nil {
		step := c.screen.Step
		c.mu.Unlock()
		c.logger.Debug().Err(err).Str("action", action.actionName()).Str("step", string(step)).Msg("Action rejected")
		return err
	}

	c.logger.Debug().Str("action", action.actionName()).Str("step", string(c.screen.Step)).Msg("Action applied")
	c.commit(effects)
	return nil
}

// reduce must be called with mu held.
func (c *Controller) reduce(action Action) ([]effect, error) {
	s := &c.screen

	if s.Session.Error != nil {
		switch action.(type) {
		case DismissError, GoHome:
		default:
			return nil, ErrActionNotAllowed
		}
	}

	switch a := action.(type) {
	case StartSession:
		if s.Step != models.StepHome {
			return nil, ErrActionNotAllowed
		}
		return c.enter(models.StepMethodChoice), nil

	case ChooseMethod:
		if s.Step != models.StepMethodChoice {
			return nil, ErrActionNotAllowed
		}
		if a.Method != models.MethodCode && a.Method != models.MethodPersonal {
			return nil, fmt.Errorf("%w: unknown method %q", ErrActionNotAllowed, a.Method)
		}
		s.Session.Method = a.Method
		return c.enter(s.Session.EntryStep()), nil

	case EnterCode:
		if s.Step != models.StepCodeEntry {
			return nil, ErrActionNotAllowed
		}
		if s.Busy {
			return nil, ErrBusy
		}
		s.CodeInput = SanitizeCode(a.Code, s.CodeLength)
		s.CanSubmit = IsCompleteCode(s.CodeInput, s.CodeLength)
		return nil, nil

	case SubmitCode:
		return c.submitCode(a.Code)

	case UpdateSearch:
		if s.Step != models.StepPersonalSearch {
			return nil, ErrActionNotAllowed
		}
		if s.Busy {
			return nil, ErrBusy
		}
		form := a.Form
		form.DateNaissance = FormatDateInput(form.DateNaissance)
		s.Search = form
		s.CanSubmit = ValidatePersonalSearch(form)
		return nil, nil

	case SubmitPersonalSearch:
		return c.submitSearch()

	case ReadCard:
		return c.readCard()

	case Skip:
		if s.Busy {
			return nil, ErrBusy
		}
		switch {
		case s.Step == models.StepCardRead && c.cfg.Flow == models.FlowPayment:
			return c.enter(models.StepInvoiceReview), nil
		case s.Step == models.StepMutuelleScan:
			return c.enter(models.StepPaymentConfirmation), nil
		}
		return nil, ErrActionNotAllowed

	case Next:
		if s.Step != models.StepVerifying && s.Step != models.StepInvoiceReview {
			return nil, ErrActionNotAllowed
		}
		if s.Busy {
			return nil, ErrBusy
		}
		if s.Session.Patient == nil {
			return nil, ErrActionNotAllowed
		}
		if !s.Session.Patient.Verified {
			s.Session.Error = unverifiedPatient(s.Session.EntryStep())
			return nil, nil
		}
		if s.Step == models.StepVerifying {
			return c.enter(models.StepConfirmed), nil
		}
		return c.enter(models.StepMutuelleScan), nil

	case ConfirmPayment:
		if s.Step != models.StepPaymentConfirmation || s.Session.Payment == nil {
			return nil, ErrActionNotAllowed
		}
		return c.enter(models.StepTerminalTap), nil

	case TapTerminal:
		if s.Step != models.StepTerminalTap {
			return nil, ErrActionNotAllowed
		}
		if s.Processing {
			return nil, ErrBusy
		}
		s.Processing = true
		c.after(c.cfg.TerminalProcessing, func() []effect {
			c.logger.Info().Int("appointment_id", c.screen.Session.AppointmentID).Msg("Payment accepted by terminal")
			return c.enter(models.StepSuccess)
		})
		return nil, nil

	case Download:
		return c.download(a.Kind)

	case DismissError:
		if s.Session.Error == nil {
			return nil, ErrActionNotAllowed
		}
		returnTo := s.Session.Error.ReturnTo
		s.Session.Error = nil
		if returnTo != "" && returnTo != s.Step {
			return c.enter(returnTo), nil
		}
		return nil, nil

	case Back:
		previous, ok := c.previousStep()
		if !ok {
			return nil, ErrActionNotAllowed
		}
		return c.enter(previous), nil

	case GoHome:
		if s.Step == models.StepKioskAuth {
			return nil, ErrActionNotAllowed
		}
		return c.enter(models.StepHome), nil

	case Authenticate:
		return c.authenticate(a.Code)

	case RegenerateMAC:
		if s.Step != models.StepKioskAuth {
			return nil, ErrActionNotAllowed
		}
		return []effect{c.deriveMAC()}, nil
	}

	return nil, fmt.Errorf("%w: %T", ErrActionNotAllowed, action)
}

func (c *Controller) submitCode(code string) ([]effect, error) {
	s := &c.screen
	if s.Step != models.StepCodeEntry {
		return nil, ErrActionNotAllowed
	}
	if s.Busy {
		return nil, ErrBusy
	}
	if code != "" {
		s.CodeInput = SanitizeCode(code, s.CodeLength)
	}
	code = s.CodeInput
	s.CanSubmit = IsCompleteCode(code, s.CodeLength)

	if !s.CanSubmit {
		s.Session.Error = incompleteCode(s.CodeLength, c.cfg.Flow)
		return nil, nil
	}

	s.Busy = true
	return []effect{c.background(func(ctx context.Context) func() []effect {
		valid, err := c.gateway.ValidateCode(ctx, code)
		return func() []effect {
			c.screen.Busy = false
			switch {
			case err != nil:
				c.logger.Error().Err(err).Str("code", code).Msg("Code validation failed")
				c.clearCode()
				c.screen.Session.Error = serverError(models.StepCodeEntry)
				return nil
			case !valid:
				c.logger.Info().Str("code", code).Msg("Code rejected")
				c.clearCode()
				c.screen.Session.Error = invalidCode(c.cfg.Flow, models.StepCodeEntry)
				return nil
			}
			c.screen.Session.ValidationCode = code
			return c.enter(models.StepCardRead)
		}
	})}, nil
}

func (c *Controller) submitSearch() ([]effect, error) {
	s := &c.screen
	if s.Step != models.StepPersonalSearch {
		return nil, ErrActionNotAllowed
	}
	if s.Busy {
		return nil, ErrBusy
	}
	if !ValidatePersonalSearch(s.Search) {
		return nil, ErrSubmissionBlocked
	}

	form := s.Search
	s.Busy = true
	return []effect{c.background(func(ctx context.Context) func() []effect {
		code, err := c.gateway.SearchByPersonalInfo(ctx, form)
		return func() []effect {
			c.screen.Busy = false
			switch {
			case errors.Is(err, gateway.ErrNotFound):
				c.logger.Info().Str("nom", form.Nom).Msg("No appointment for personal search")
				c.screen.Session.Error = searchNotFound()
				return nil
			case err != nil:
				c.logger.Error().Err(err).Msg("Personal search failed")
				c.screen.Session.Error = searchFailed()
				return nil
			}
			c.screen.Session.ValidationCode = code
			return c.enter(models.StepCardRead)
		}
	})}, nil
}

func (c *Controller) readCard() ([]effect, error) {
	s := &c.screen
	var kind models.CardKind
	var next models.Step

	switch s.Step {
	case models.StepCardRead:
		kind, next = models.CardVitale, models.StepVerifying
		if c.cfg.Flow == models.FlowPayment {
			next = models.StepInvoiceReview
		}
	case models.StepMutuelleScan:
		kind, next = models.CardMutuelle, models.StepPaymentConfirmation
	default:
		return nil, ErrActionNotAllowed
	}
	if s.Busy {
		return nil, ErrBusy
	}

	s.Busy = true
	return []effect{c.background(func(ctx context.Context) func() []effect {
		err := c.cards.Read(ctx, kind)
		return func() []effect {
			c.screen.Busy = false
			if err != nil {
				// the patient stays on the card step and may retry
				c.logger.Error().Err(err).Str("card", string(kind)).Msg("Card read failed")
				return nil
			}
			return c.enter(next)
		}
	})}, nil
}

func (c *Controller) download(kind models.DocumentKind) ([]effect, error) {
	s := &c.screen
	if s.Step != models.StepSuccess {
		return nil, ErrActionNotAllowed
	}
	if s.Downloading != "" {
		return nil, ErrBusy
	}
	if _, ok := documentLabels[kind]; !ok {
		return nil, fmt.Errorf("%w: unknown document %q", ErrActionNotAllowed, kind)
	}

	c.pauseCountdownLocked()
	s.Downloading = kind
	appointmentID := s.Session.AppointmentID

	return []effect{c.background(func(ctx context.Context) func() []effect {
		data, err := c.gateway.FetchDocument(ctx, appointmentID, kind)
		if err == nil {
			err = c.documents.Deliver(ctx, appointmentID, kind, data)
		}
		return func() []effect {
			c.screen.Downloading = ""
			if err != nil {
				c.logger.Error().Err(err).Str("kind", string(kind)).Int("appointment_id", appointmentID).
					Msg("Document download failed")
				c.screen.Session.Error = downloadFailed(kind)
			}
			c.startCountdownLocked()
			return nil
		}
	})}, nil
}

func (c *Controller) authenticate(code string) ([]effect, error) {
	s := &c.screen
	if s.Step != models.StepKioskAuth {
		return nil, ErrActionNotAllowed
	}
	if s.Busy {
		return nil, ErrBusy
	}
	code = strings.TrimSpace(code)
	if len(code) < kioskauth.MinCodeLength {
		s.Session.Error = missingKioskCode()
		return nil, nil
	}

	mac := s.DeviceMAC
	s.Busy = true
	return []effect{c.background(func(ctx context.Context) func() []effect {
		err := c.auth.Authenticate(ctx, code, mac)
		return func() []effect {
			c.screen.Busy = false
			switch {
			case err == nil:
				return c.enter(models.StepHome)
			case errors.Is(err, gateway.ErrInvalidCode):
				c.screen.Session.Error = unknownKioskCode()
			case errors.Is(err, gateway.ErrBadRequest):
				c.screen.Session.Error = invalidKioskData()
			case errors.Is(err, kioskauth.ErrCodeTooShort):
				c.screen.Session.Error = missingKioskCode()
			default:
				c.screen.Session.Error = kioskConnectionFailed()
			}
			c.logger.Error().Err(err).Str("code", code).Msg("Kiosk authentication failed")
			return nil
		}
	})}, nil
}

func (c *Controller) deriveMAC() effect {
	return c.background(func(ctx context.Context) func() []effect {
		mac := c.auth.MACAddress(ctx)
		return func() []effect {
			c.screen.DeviceMAC = mac
			return nil
		}
	})
}

func (c *Controller) lookup() effect {
	code := c.screen.Session.ValidationCode
	step := c.screen.Step

	return c.background(func(ctx context.Context) func() []effect {
		patient, err := c.gateway.LookupAppointment(ctx, code)
		return func() []effect {
			c.screen.Busy = false
			entry := c.screen.Session.EntryStep()
			switch {
			case errors.Is(err, gateway.ErrNotFound):
				c.logger.Warn().Str("code", code).Msg("Appointment not found")
				c.screen.Session.Error = invalidCode(c.cfg.Flow, entry)
				return nil
			case err != nil:
				c.logger.Error().Err(err).Str("code", code).Msg("Appointment lookup failed")
				c.screen.Session.Error = detailsError(entry)
				return nil
			}

			if !patient.Verified {
				c.logger.Warn().Str("code", code).Int("appointment_id", patient.AppointmentID).Msg("Appointment is not verified")
				c.screen.Session.Error = unverifiedPatient(entry)
				return nil
			}

			c.screen.Session.Patient = patient
			c.screen.Session.AppointmentID = patient.AppointmentID
			c.screen.Session.RemainingDue = patient.RemainingDue()
			if step != models.StepVerifying {
				return nil
			}
			c.after(c.cfg.VerifyAdvanceDelay, func() []effect {
				return c.enter(models.StepConfirmed)
			})
			return []effect{c.sendToWaitingRoom(code)}
		}
	})
}

// sendToWaitingRoom is best effort and never touches the screen.
func (c *Controller) sendToWaitingRoom(code string) effect {
	return func() {
		c.runner.Submit(func() {
			sent, err := c.gateway.SendToWaitingRoom(c.ctx, code)
			switch {
			case err != nil:
				c.logger.Warn().Err(err).Str("code", code).Msg("Waiting room notification failed")
			case !sent:
				c.logger.Warn().Str("code", code).Msg("Waiting room notification not accepted")
			default:
				c.logger.Info().Str("code", code).Msg("Patient sent to waiting room")
			}
		})
	}
}

func (c *Controller) previousStep() (models.Step, bool) {
	s := &c.screen
	switch s.Step {
	case models.StepMethodChoice:
		return models.StepHome, true
	case models.StepCodeEntry, models.StepPersonalSearch:
		return models.StepMethodChoice, true
	case models.StepCardRead:
		return s.Session.EntryStep(), true
	case models.StepInvoiceReview:
		return models.StepCardRead, true
	case models.StepMutuelleScan:
		return models.StepInvoiceReview, true
	case models.StepPaymentConfirmation:
		return models.StepMutuelleScan, true
	}
	return "", false
}

// enter activates step and returns its entry effects. mu must be held.
func (c *Controller) enter(step models.Step) []effect {
	c.stopTimersLocked()
	c.epoch++

	s := &c.screen
	from := s.Step
	s.Step = step
	s.Busy = false
	s.Processing = false
	s.Downloading = ""
	s.Countdown = 0
	s.Session.Error = nil

	c.logger.Info().Str("from", string(from)).Str("to", string(step)).Msg("Step changed")

	switch step {
	case models.StepKioskAuth:
		c.resetSession()
		return []effect{c.deriveMAC()}
	case models.StepHome:
		c.resetSession()
	case models.StepMethodChoice:
		c.resetSession()
	case models.StepCodeEntry, models.StepPersonalSearch:
		s.Session.ValidationCode = ""
		s.Session.AppointmentID = 0
		s.Session.Patient = nil
		s.Session.RemainingDue = ""
		s.Session.Payment = nil
		c.clearCode()
		s.CanSubmit = step == models.StepPersonalSearch && ValidatePersonalSearch(s.Search)
	case models.StepVerifying, models.StepInvoiceReview:
		s.Busy = true
		return []effect{c.lookup()}
	case models.StepPaymentConfirmation:
		c.preparePayment()
	case models.StepSuccess:
		c.startCountdownLocked()
	}
	return nil
}

func (c *Controller) preparePayment() {
	s := &c.screen
	if s.Session.Patient == nil {
		c.logger.Error().Str("code", s.Session.ValidationCode).Msg("No patient information for payment")
		s.Session.Error = invalidCode(c.cfg.Flow, s.Session.EntryStep())
		return
	}

	payment, err := models.DerivePayment(*s.Session.Patient)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to derive payment")
		s.Session.Error = serverError(s.Session.EntryStep())
		return
	}
	s.Session.Payment = &payment
}

func (c *Controller) resetSession() {
	c.screen.Session = models.SessionContext{Flow: c.cfg.Flow}
	c.screen.Search = models.PersonalSearch{}
	c.screen.CanSubmit = false
	c.clearCode()
}

func (c *Controller) clearCode() {
	c.screen.CodeInput = ""
	c.screen.CanSubmit = false
}

func (c *Controller) codeLength() int {
	if c.cfg.Flow == models.FlowPayment {
		return c.cfg.PaymentCodeLength
	}
	return c.cfg.AppointmentCodeLength
}

// startCountdownLocked shows a full countdown back to Home.
func (c *Controller) startCountdownLocked() {
	c.pauseCountdownLocked()
	c.screen.Countdown = int(c.cfg.SuccessCountdown / time.Second)
	c.scheduleCountdownTick(c.countdownGen)
}

func (c *Controller) scheduleCountdownTick(gen uint64) {
	epoch := c.epoch
	c.countdown = c.scheduler.AfterFunc(time.Second, func() {
		c.applyIf(epoch, func() []effect {
			if gen != c.countdownGen {
				return nil
			}
			c.screen.Countdown--
			if c.screen.Countdown <= 0 {
				c.logger.Info().Msg("Success countdown elapsed, returning home")
				return c.enter(models.StepHome)
			}
			c.scheduleCountdownTick(gen)
			return nil
		})
	})
}

func (c *Controller) pauseCountdownLocked() {
	c.countdownGen++
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
}

func (c *Controller) stopTimersLocked() {
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	c.pauseCountdownLocked()
}

// after runs fn in d if the current step is still active. mu must be held.
func (c *Controller) after(d time.Duration, fn func() []effect) {
	epoch := c.epoch
	c.timers = append(c.timers, c.scheduler.AfterFunc(d, func() {
		c.applyIf(epoch, fn)
	}))
}

// background runs call on the Runner and applies the closure it returns
// if the step that started it is still active. mu must be held.
func (c *Controller) background(call func(ctx context.Context) func() []effect) effect {
	epoch := c.epoch
	return func() {
		c.runner.Submit(func() {
			apply := call(c.ctx)
			c.applyIf(epoch, apply)
		})
	}
}

func (c *Controller) applyIf(epoch uint64, fn func() []effect) {
	c.mu.Lock()
	if epoch != c.epoch {
		step := c.screen.Step
		c.mu.Unlock()
		c.logger.Warn().Str("step", string(step)).Msg("Discarding result for a step that is no longer active")
		return
	}
	c.commit(fn())
}

// commit publishes the screen and runs effects. It must be called with mu
// held and releases it.
func (c *Controller) commit(effects []effect) {
	screen := c.screen
	listeners := make([]func(Screen), 0, len(c.listeners))
	for id := 0; id < c.nextListener; id++ {
		if l, ok := c.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}

	c.notifyMu.Lock()
	c.mu.Unlock()
	for _, l := range listeners {
		l(screen)
	}
	c.notifyMu.Unlock()

	for _, e := range effects {
		e()
	}
}
