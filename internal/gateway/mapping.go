package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/models"
)

// Values shown when the backend omits a field.
const (
	DefaultAppointmentDate = "01/01/2025"
	DefaultAppointmentTime = "00:00"
	DefaultBirthDate       = "01/01/1990"
	DefaultPatientName     = "Patient"
	DefaultSocialSecurity  = "0 00 00 00 000 000 00"
	DefaultDoctor          = "Dr Martin François"
	DefaultWaitingRoom     = "Veuillez vous référer au secrétariat pour connaître votre salle d'attente"
)

type appointmentResponse struct {
	ID              int     `json:"id"`
	AppointmentDate string  `json:"appointmentDate"`
	ValidationCode  string  `json:"validationCode"`
	Status          string  `json:"status"`
	Price           float64 `json:"price"`
	Couverture      float64 `json:"couverture"`
	Patient         *struct {
		Nom           string `json:"nom"`
		Prenom        string `json:"prenom"`
		Telephone     string `json:"telephone"`
		DateNaissance string `json:"date_naissance"`
		NumSecSocial  string `json:"num_sec_social"`
		FullName      string `json:"fullName"`
	} `json:"patient"`
	Medecin *struct {
		Nom    string `json:"nom"`
		Prenom string `json:"prenom"`
	} `json:"medecin"`
	PersonnelMedecin *struct {
		Nom string `json:"nom"`
	} `json:"personnel_medecin"`
	SalleAttente *struct {
		Nom string `json:"nom"`
	} `json:"salle_attente"`
}

type kioskAuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kiosk   *struct {
		ID         int    `json:"id"`
		Code       string `json:"code"`
		MACAddress string `json:"mac_adresse"`
		Name       string `json:"nom"`
		Status     string `json:"statut"`
	} `json:"kiosk"`
}

func (r kioskAuthResponse) toKioskStatus() *models.KioskStatus {
	status := &models.KioskStatus{Message: r.Message}
	if r.Kiosk != nil {
		status.ID = r.Kiosk.ID
		status.Code = r.Kiosk.Code
		status.MACAddress = r.Kiosk.MACAddress
		status.Name = r.Kiosk.Name
		status.Status = r.Kiosk.Status
	}
	return status
}

func (r appointmentResponse) toPatientInfo(loc *time.Location) models.PatientInfo {
	date, hour := formatAppointment(r.AppointmentDate, loc)

	info := models.PatientInfo{
		FullName:        DefaultPatientName,
		DateNaissance:   DefaultBirthDate,
		DateRendezVous:  date,
		HeureRendezVous: hour,
		NumeroSecu:      DefaultSocialSecurity,
		Price:           r.Price,
		Couverture:      r.Couverture,
		SalleAttente:    DefaultWaitingRoom,
		Medecin:         DefaultDoctor,
		Verified:        true,
		AppointmentID:   r.ID,
	}

	if p := r.Patient; p != nil {
		info.FullName = patientName(p.FullName, p.Nom, p.Prenom)
		if d, ok := formatBirthDate(p.DateNaissance); ok {
			info.DateNaissance = d
		}
		switch {
		case strings.TrimSpace(p.NumSecSocial) != "":
			info.NumeroSecu = formatSocialSecurity(p.NumSecSocial)
		case strings.TrimSpace(p.Telephone) != "":
			info.NumeroSecu = formatSocialSecurity(p.Telephone)
		}
	}

	switch {
	case r.Medecin != nil && r.Medecin.Nom != "" && r.Medecin.Prenom != "":
		info.Medecin = r.Medecin.Nom + " " + r.Medecin.Prenom
	case r.Medecin != nil && r.Medecin.Nom != "":
		info.Medecin = r.Medecin.Nom
	case r.Medecin == nil && r.PersonnelMedecin != nil && r.PersonnelMedecin.Nom != "":
		info.Medecin = r.PersonnelMedecin.Nom
	}

	if r.SalleAttente != nil && r.SalleAttente.Nom != "" {
		info.SalleAttente = r.SalleAttente.Nom
	}

	return info
}

func patientName(fullName, nom, prenom string) string {
	if name := strings.TrimSpace(fullName); name != "" {
		return name
	}
	name := strings.TrimSpace(strings.TrimSpace(nom) + " " + strings.TrimSpace(prenom))
	if name == "" {
		return DefaultPatientName
	}
	return name
}

var appointmentLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// formatAppointment renders an appointment timestamp as DD/MM/YYYY and
// HH:MM in loc. Timestamps without a zone are read in loc.
func formatAppointment(raw string, loc *time.Location) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultAppointmentDate, DefaultAppointmentTime
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = t.In(loc)
		return t.Format("02/01/2006"), t.Format("15:04")
	}
	for _, layout := range appointmentLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.Format("02/01/2006"), t.Format("15:04")
		}
	}
	return DefaultAppointmentDate, DefaultAppointmentTime
}

func formatBirthDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 10 {
		return "", false
	}
	t, err := time.Parse("2006-01-02", raw[:10])
	if err != nil {
		return "", false
	}
	return t.Format("02/01/2006"), true
}

// formatSocialSecurity right-pads digits to 15 characters and groups them
// as X XX XX XX XXX XXX XX.
func formatSocialSecurity(raw string) string {
	digits := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if len(digits) < 15 {
		digits += strings.Repeat("0", 15-len(digits))
	}
	return fmt.Sprintf("%s %s %s %s %s %s %s",
		digits[0:1], digits[1:3], digits[3:5], digits[5:7], digits[7:10], digits[10:13], digits[13:15])
}
