package models

// UI event types published by the touchscreen client.
const (
	UIEventTap          = "tap"
	UIEventKeyboardShow = "keyboard_show"
	UIEventKeyboardHide = "keyboard_hide"
	UIEventForeground   = "foreground"
	UIEventAction       = "action"
	UIEventAdmin        = "admin"
)

// UIEvent is one message from the touchscreen client.
type UIEvent struct {
	Type   string          `json:"type"`
	Name   string          `json:"name,omitempty"`
	Code   string          `json:"code,omitempty"`
	MAC    string          `json:"mac,omitempty"`
	Method Method          `json:"method,omitempty"`
	Kind   DocumentKind    `json:"kind,omitempty"`
	Form   *PersonalSearch `json:"form,omitempty"`
}

// AdminResponse is published back to the client for admin events.
type AdminResponse struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}
