package models

// Step names a screen of the kiosk flow.
type Step string

const (
	StepKioskAuth           Step = "kiosk_auth"
	StepHome                Step = "home"
	StepMethodChoice        Step = "method_choice"
	StepCodeEntry           Step = "code_entry"
	StepPersonalSearch      Step = "personal_search"
	StepCardRead            Step = "card_read"
	StepVerifying           Step = "verifying"
	StepConfirmed           Step = "confirmed"
	StepInvoiceReview       Step = "invoice_review"
	StepMutuelleScan        Step = "mutuelle_scan"
	StepPaymentConfirmation Step = "payment_confirmation"
	StepTerminalTap         Step = "terminal_tap"
	StepSuccess             Step = "success"
)

// FlowKind selects which sequence of steps a kiosk runs.
type FlowKind string

const (
	FlowCheckIn FlowKind = "checkin"
	FlowPayment FlowKind = "payment"
)

// Valid reports whether k is a known flow.
func (k FlowKind) Valid() bool {
	return k == FlowCheckIn || k == FlowPayment
}

// Method is how the patient identifies the appointment.
type Method string

const (
	MethodCode     Method = "code"
	MethodPersonal Method = "personal"
)

// CardKind distinguishes the two simulated card reads.
type CardKind string

const (
	CardVitale   CardKind = "carte_vitale"
	CardMutuelle CardKind = "mutuelle"
)

// DocumentKind is a downloadable document type.
type DocumentKind string

const (
	DocumentInvoice      DocumentKind = "invoice"
	DocumentPrescription DocumentKind = "prescription"
)

// ErrorKind classifies an error shown to the user.
type ErrorKind string

const (
	ErrorIncomplete  ErrorKind = "incomplete"
	ErrorInvalidCode ErrorKind = "invalid_code"
	ErrorBadRequest  ErrorKind = "bad_request"
	ErrorServer      ErrorKind = "server"
	ErrorDownload    ErrorKind = "download"
)

// ErrorState is a blocking modal. Dismissing it returns to ReturnTo.
type ErrorState struct {
	Kind     ErrorKind `json:"kind"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	ReturnTo Step      `json:"return_to,omitempty"`
}

// SessionContext is what a patient session carries from step to step.
type SessionContext struct {
	Flow           FlowKind     `json:"flow"`
	Method         Method       `json:"method,omitempty"`
	ValidationCode string       `json:"validation_code,omitempty"`
	AppointmentID  int          `json:"appointment_id,omitempty"`
	Patient        *PatientInfo `json:"patient,omitempty"`
	RemainingDue   string       `json:"remaining_due,omitempty"` // clamped at zero
	Payment        *PaymentInfo `json:"payment,omitempty"`
	Error          *ErrorState  `json:"error,omitempty"`
}

// EntryStep is the step where the validation code was obtained.
func (s SessionContext) EntryStep() Step {
	if s.Method == MethodPersonal {
		return StepPersonalSearch
	}
	return StepCodeEntry
}
