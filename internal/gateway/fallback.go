//go:build !kioskdev

package gateway

import "github.com/benmeehan/kiosk-agent/internal/models"

// FallbackEnabled reports whether the development table is compiled in.
const FallbackEnabled = false

func fallbackValidate(string) (bool, bool) {
	return false, false
}

func fallbackAppointment(string) (models.PatientInfo, bool) {
	return models.PatientInfo{}, false
}
