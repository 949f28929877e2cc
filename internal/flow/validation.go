package flow

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/models"
)

const (
	minNameLength = 2
	minBirthYear  = 1900
)

var datePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// IsValidDate reports whether s is a real DD/MM/YYYY calendar date with a
// year between 1900 and the current year.
func IsValidDate(s string) bool {
	return isValidDateAt(s, time.Now())
}

func isValidDateAt(s string, now time.Time) bool {
	if !datePattern.MatchString(s) {
		return false
	}

	day, _ := strconv.Atoi(s[0:2])
	month, _ := strconv.Atoi(s[3:5])
	year, _ := strconv.Atoi(s[6:10])

	if year < minBirthYear || year > now.Year() {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	// day 0 of the next month is the last day of this one
	daysInMonth := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return day >= 1 && day <= daysInMonth
}

// ValidatePersonalSearch reports whether form may be submitted.
func ValidatePersonalSearch(form models.PersonalSearch) bool {
	return validatePersonalSearchAt(form, time.Now())
}

func validatePersonalSearchAt(form models.PersonalSearch, now time.Time) bool {
	form = form.Normalized()
	return len([]rune(form.Nom)) >= minNameLength &&
		len([]rune(form.Prenom)) >= minNameLength &&
		isValidDateAt(form.DateNaissance, now)
}

// FormatDateInput keeps the digits of raw and inserts the slashes of
// DD/MM/YYYY as they become due.
func FormatDateInput(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' && digits.Len() < 8 {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 4:
		return d[:2] + "/" + d[2:]
	default:
		return d[:2] + "/" + d[2:4] + "/" + d[4:]
	}
}

// SanitizeCode keeps at most length digits of raw.
func SanitizeCode(raw string, length int) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' && b.Len() < length {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsCompleteCode reports whether code is exactly length digits.
func IsCompleteCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
