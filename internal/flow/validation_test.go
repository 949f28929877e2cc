package flow

import (
	"testing"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/stretchr/testify/assert"
)

var validationNow = time.Date(2025, time.July, 14, 9, 40, 0, 0, time.UTC)

// TestIsValidDate tests calendar validation of birth dates.
func TestIsValidDate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"31/02/2020", false},
		{"29/02/2020", true},
		{"29/02/2019", false},
		{"15/13/2020", false},
		{"00/01/2020", false},
		{"15/00/2020", false},
		{"15/03/1899", false},
		{"01/01/1900", true},
		{"31/12/2025", true},
		{"01/01/2026", false},
		{"31/04/2020", false},
		{"30/04/2020", true},
		{"1/1/2020", false},
		{"01-01-2020", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, isValidDateAt(tt.input, validationNow))
		})
	}
}

// TestValidatePersonalSearch tests the submit gate of the search form.
func TestValidatePersonalSearch(t *testing.T) {
	valid := models.PersonalSearch{Nom: "Bougault", Prenom: "Juline", DateNaissance: "03/08/2012"}
	assert.True(t, validatePersonalSearchAt(valid, validationNow))

	short := valid
	short.Nom = " B "
	assert.False(t, validatePersonalSearchAt(short, validationNow))

	noFirstName := valid
	noFirstName.Prenom = "J"
	assert.False(t, validatePersonalSearchAt(noFirstName, validationNow))

	badDate := valid
	badDate.DateNaissance = "31/02/2012"
	assert.False(t, validatePersonalSearchAt(badDate, validationNow))

	accented := valid
	accented.Nom = "Éa"
	assert.True(t, validatePersonalSearchAt(accented, validationNow))
}

// TestFormatDateInput tests progressive DD/MM/YYYY formatting.
func TestFormatDateInput(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"0":            "0",
		"03":           "03",
		"030":          "03/0",
		"0308":         "03/08",
		"03082":        "03/08/2",
		"03082012":     "03/08/2012",
		"030820129999": "03/08/2012",
		"03/08/2012":   "03/08/2012",
		"ab03x08":      "03/08",
	}

	for input, want := range tests {
		assert.Equal(t, want, FormatDateInput(input), "input %q", input)
	}
}

// TestCodeHelpers tests code sanitising and completeness.
func TestCodeHelpers(t *testing.T) {
	assert.Equal(t, "141610", SanitizeCode("14 16-10", 6))
	assert.Equal(t, "123456", SanitizeCode("1234567", 6))
	assert.True(t, IsCompleteCode("141610", 6))
	assert.False(t, IsCompleteCode("14161", 6))
	assert.False(t, IsCompleteCode("14161a", 6))
}
