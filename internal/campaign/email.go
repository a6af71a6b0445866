package campaign

import (
	"net/mail"
	"strings"
)

// EmailAddress is a validated, trimmed email address value.
type EmailAddress string

// ParseEmailAddress validates and normalizes an email address. The empty
// string is rejected; callers that allow optional addresses check for blank
// input first.
func ParseEmailAddress(value string) (EmailAddress, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", false
	}
	return EmailAddress(trimmed), true
}

// String returns the address as a plain string.
func (e EmailAddress) String() string { return string(e) }
