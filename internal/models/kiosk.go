package models

import "time"

// KioskIdentity is the locally persisted binding of this device.
type KioskIdentity struct {
	Authenticated  bool   `json:"authenticated"`
	KioskCode      string `json:"kiosk_code,omitempty"`
	MACAddress     string `json:"mac_address,omitempty"`
	InstallationID string `json:"installation_id"`
}

// KioskStatus is the backend view of a kiosk binding.
type KioskStatus struct {
	ID         int    `json:"id"`
	Code       string `json:"code"`
	MACAddress string `json:"mac_adresse"`
	Name       string `json:"nom,omitempty"`
	Status     string `json:"statut"`
	Message    string `json:"message,omitempty"`
}

// StatusReport is the periodic status heartbeat.
type StatusReport struct {
	InstallationID string                  `json:"installation_id"`
	KioskCode      string                  `json:"kiosk_code,omitempty"`
	MACAddress     string                  `json:"mac_address,omitempty"`
	Authenticated  bool                    `json:"authenticated"`
	Step           Step                    `json:"step"`
	Host           map[string]MetricSample `json:"host,omitempty"`
	Timestamp      time.Time               `json:"timestamp"`
}

// MetricSample is one host metric value.
type MetricSample struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}
