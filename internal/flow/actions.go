package flow

import "github.com/benmeehan/kiosk-agent/internal/models"

// Action is a user or shell event dispatched to the Controller.
type Action interface {
	actionName() string
}

// StartSession leaves the home step.
type StartSession struct{}

// ChooseMethod picks how the patient identifies the appointment.
type ChooseMethod struct{ Method models.Method }

// EnterCode mirrors the keypad input.
type EnterCode struct{ Code string }

// SubmitCode validates Code, or the current input when Code is empty.
type SubmitCode struct{ Code string }

// UpdateSearch mirrors the personal search form.
type UpdateSearch struct{ Form models.PersonalSearch }

// SubmitPersonalSearch resolves the current form to a validation code.
type SubmitPersonalSearch struct{}

// ReadCard starts a card read on a card step.
type ReadCard struct{}

// Skip bypasses an optional card step.
type Skip struct{}

// Next advances a step waiting on the patient.
type Next struct{}

// ConfirmPayment accepts the invoice breakdown.
type ConfirmPayment struct{}

// TapTerminal simulates a card tap on the payment terminal.
type TapTerminal struct{}

// Download fetches and stores a document on the success step.
type Download struct{ Kind models.DocumentKind }

// DismissError acknowledges the error modal.
type DismissError struct{}

// Back returns to the previous step.
type Back struct{}

// GoHome abandons the session.
type GoHome struct{}

// Authenticate binds the kiosk with Code.
type Authenticate struct{ Code string }

// RegenerateMAC derives the device MAC again.
type RegenerateMAC struct{}

func (StartSession) actionName() string         { return "start_session" }
func (ChooseMethod) actionName() string         { return "choose_method" }
func (EnterCode) actionName() string            { return "enter_code" }
func (SubmitCode) actionName() string           { return "submit_code" }
func (UpdateSearch) actionName() string         { return "update_search" }
func (SubmitPersonalSearch) actionName() string { return "submit_personal_search" }
func (ReadCard) actionName() string             { return "read_card" }
func (Skip) actionName() string                 { return "skip" }
func (Next) actionName() string                 { return "next" }
func (ConfirmPayment) actionName() string       { return "confirm_payment" }
func (TapTerminal) actionName() string          { return "tap_terminal" }
func (Download) actionName() string             { return "download" }
func (DismissError) actionName() string         { return "dismiss_error" }
func (Back) actionName() string                 { return "back" }
func (GoHome) actionName() string               { return "go_home" }
func (Authenticate) actionName() string         { return "authenticate" }
func (RegenerateMAC) actionName() string        { return "regenerate_mac" }

// ActionFromEvent maps a UI action event to an Action.
func ActionFromEvent(event models.UIEvent) (Action, bool) {
	switch event.Name {
	case "start_session":
		return StartSession{}, true
	case "choose_method":
		return ChooseMethod{Method: event.Method}, true
	case "enter_code":
		return EnterCode{Code: event.Code}, true
	case "submit_code":
		return SubmitCode{Code: event.Code}, true
	case "update_search":
		if event.Form == nil {
			return nil, false
		}
		return UpdateSearch{Form: *event.Form}, true
	case "submit_personal_search":
		return SubmitPersonalSearch{}, true
	case "read_card":
		return ReadCard{}, true
	case "skip":
		return Skip{}, true
	case "next":
		return Next{}, true
	case "confirm_payment":
		return ConfirmPayment{}, true
	case "tap_terminal":
		return TapTerminal{}, true
	case "download":
		return Download{Kind: event.Kind}, true
	case "dismiss_error":
		return DismissError{}, true
	case "back":
		return Back{}, true
	case "go_home":
		return GoHome{}, true
	case "authenticate":
		return Authenticate{Code: event.Code}, true
	case "regenerate_mac":
		return RegenerateMAC{}, true
	default:
		return nil, false
	}
}
