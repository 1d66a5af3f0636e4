package identity

import (
	"errors"
	"strings"
)

// ErrInvalidPhone is returned when a phone number cannot be canonicalized.
var ErrInvalidPhone = errors.New("phone number must be +country-code followed by 10-15 digits")

// CanonicalPhone normalizes a phone number to its canonical form: formatting
// characters (spaces, dashes, dots, parentheses) are stripped and the result
// must be "+" followed by 10 to 15 digits. Two spellings of the same number
// always canonicalize to the same string, so phone uniqueness in the store
// is uniqueness of actual numbers, not of formatting.
func CanonicalPhone(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '-', '.', '(', ')':
			continue
		default:
			b.WriteRune(r)
		}
	}
	phone := b.String()

	if len(phone) < 11 || len(phone) > 16 || phone[0] != '+' {
		return "", ErrInvalidPhone
	}
	for _, r := range phone[1:] {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return phone, nil
}
