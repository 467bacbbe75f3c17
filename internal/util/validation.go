package util

import (
	"regexp"
	"strings"
)

var (
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	// International format only: leading +, 7 to 15 digits.
	phoneRegex = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// NormalizePhone strips spaces, dashes and parentheses so "+1 (555) 000-1234"
// and "+15550001234" compare equal.
func NormalizePhone(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}
