package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	orgNumberRegex = regexp.MustCompile(`^\d{6}-\d{4}$`)
	swedishIBAN    = regexp.MustCompile(`^SE\d{22}$`)
	controlChars   = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateOrgNumber validates a Swedish organisation number (NNNNNN-NNNN)
func ValidateOrgNumber(orgNr string) error {
	if !orgNumberRegex.MatchString(orgNr) {
		return fmt.Errorf("organisation number must be NNNNNN-NNNN: %s", orgNr)
	}
	return nil
}

// ValidateIBAN validates the shape of a Swedish IBAN; spaces are ignored
func ValidateIBAN(iban string) error {
	compact := strings.ReplaceAll(iban, " ", "")
	if !swedishIBAN.MatchString(compact) {
		return fmt.Errorf("IBAN must be SE followed by 22 digits: %s", iban)
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
