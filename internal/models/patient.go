package models

import (
	"fmt"
	"math"
)

// Labels shown on the payment breakdown.
const (
	ConsultationLabel      = "Consultation médicale"
	MutuelleLabel          = "Mutuelle"
	RegimeObligatoireLabel = "Régime Obligatoire"
)

// PatientInfo is the appointment as shown to the patient.
type PatientInfo struct {
	FullName        string  `json:"full_name"`
	DateNaissance   string  `json:"date_naissance"`
	DateRendezVous  string  `json:"date_rendez_vous"`
	HeureRendezVous string  `json:"heure_rendez_vous"`
	NumeroSecu      string  `json:"numero_secu"`
	Price           float64 `json:"price"`
	Couverture      float64 `json:"couverture"`
	SalleAttente    string  `json:"salle_attente"`
	Medecin         string  `json:"medecin"`
	Verified        bool    `json:"verified"`
	AppointmentID   int     `json:"appointment_id"`
}

// AmountDue is price minus coverage, never negative.
func (p PatientInfo) AmountDue() float64 {
	return math.Max(0, p.Price-p.Couverture)
}

// RemainingDue formats AmountDue with two decimals.
func (p PatientInfo) RemainingDue() string {
	return FormatAmount(p.AmountDue())
}

// PaymentInfo is the invoice breakdown presented before payment.
type PaymentInfo struct {
	ConsultationLabel      string `json:"consultation_label"`
	ConsultationPrice      string `json:"consultation_price"`
	MutuelleLabel          string `json:"mutuelle_label"`
	MutuelleAmount         string `json:"mutuelle_amount"`
	TotalTTC               string `json:"total_ttc"`
	RegimeObligatoireLabel string `json:"regime_obligatoire_label"`
	RegimeObligatoireValue string `json:"regime_obligatoire_value"`
	AppointmentID          int    `json:"appointment_id"`
}

// DerivePayment builds the payment breakdown from a verified patient.
func DerivePayment(p PatientInfo) (PaymentInfo, error) {
	if !p.Verified {
		return PaymentInfo{}, fmt.Errorf("patient information for appointment %d is not verified", p.AppointmentID)
	}

	return PaymentInfo{
		ConsultationLabel:      ConsultationLabel,
		ConsultationPrice:      FormatAmount(p.Price),
		MutuelleLabel:          MutuelleLabel,
		MutuelleAmount:         "-" + FormatAmount(p.Couverture),
		TotalTTC:               FormatAmount(p.AmountDue()),
		RegimeObligatoireLabel: RegimeObligatoireLabel,
		RegimeObligatoireValue: "-" + FormatAmount(0),
		AppointmentID:          p.AppointmentID,
	}, nil
}

// FormatAmount renders an amount with two decimals.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
