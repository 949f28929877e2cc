package models

import "strings"

// PersonalSearch is the identity form used to find an appointment.
type PersonalSearch struct {
	Nom           string `json:"nom"`
	Prenom        string `json:"prenom"`
	DateNaissance string `json:"date_naissance"` // DD/MM/YYYY
}

// Normalized trims the names and upper-cases the surname.
func (p PersonalSearch) Normalized() PersonalSearch {
	return PersonalSearch{
		Nom:           strings.ToUpper(strings.TrimSpace(p.Nom)),
		Prenom:        strings.TrimSpace(p.Prenom),
		DateNaissance: strings.TrimSpace(p.DateNaissance),
	}
}

// ISODate converts DD/MM/YYYY to YYYY-MM-DD. Malformed input is returned as is.
func (p PersonalSearch) ISODate() string {
	parts := strings.Split(strings.TrimSpace(p.DateNaissance), "/")
	if len(parts) != 3 {
		return p.DateNaissance
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}
