//go:build kioskdev

package gateway

import "github.com/benmeehan/kiosk-agent/internal/models"

// Development-only appointments, served when the backend cannot be reached.
// Compiled in with -tags kioskdev; never consulted on a backend 404.
var devAppointments = map[string]models.PatientInfo{
	"123456": {
		FullName:        "Dupont Sophie",
		DateNaissance:   "24/01/1990",
		DateRendezVous:  "20/02/2025",
		HeureRendezVous: "14:30",
		NumeroSecu:      "2 90 01 75 123 456 78",
		Price:           30,
		Couverture:      18,
		SalleAttente:    "salle d'attente 01",
		Medecin:         "Dr Martin François",
		Verified:        true,
		AppointmentID:   123456,
	},
	"460163": {
		FullName:        "Ball4 Boubou4",
		DateNaissance:   "09/10/1991",
		DateRendezVous:  "22/04/2025",
		HeureRendezVous: "11:23",
		NumeroSecu:      "2 46 19 71 094 456 78",
		Price:           37,
		Couverture:      13,
		SalleAttente:    "Test",
		Medecin:         "Dr GUTTIEREZ Hervé",
		Verified:        true,
		AppointmentID:   460163,
	},
	"141610": {
		FullName:        "Juline BOUGAULT",
		DateNaissance:   "03/08/2012",
		DateRendezVous:  "14/07/2025",
		HeureRendezVous: "09:40",
		NumeroSecu:      "2 02 43 23 304 456 78",
		Price:           50,
		Couverture:      20,
		SalleAttente:    "OCTPSS",
		Medecin:         "Dr LABALLE LABALLE",
		Verified:        true,
		AppointmentID:   15480,
	},
}

// FallbackEnabled reports whether the development table is compiled in.
const FallbackEnabled = true

func fallbackValidate(code string) (bool, bool) {
	_, ok := devAppointments[code]
	return ok, true
}

func fallbackAppointment(code string) (models.PatientInfo, bool) {
	patient, ok := devAppointments[code]
	return patient, ok
}
