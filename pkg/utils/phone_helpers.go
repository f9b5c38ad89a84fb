package utils

import (
	"regexp"
)

var nonDigitRegexp = regexp.MustCompile(`\D`)

// NormalizeRussianPhoneNumber приводит номер к виду +7XXXXXXXXXX.
// Пустая строка означает, что номер распознать не удалось.
func NormalizeRussianPhoneNumber(phone string) string {
	digitsOnly := nonDigitRegexp.ReplaceAllString(phone, "")
	switch {
	case len(digitsOnly) == 10 && digitsOnly[0] == '9':
		return "+7" + digitsOnly
	case len(digitsOnly) == 11 && (digitsOnly[0] == '7' || digitsOnly[0] == '8'):
		return "+7" + digitsOnly[1:]
	default:
		return ""
	}
}
