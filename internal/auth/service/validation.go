package service

import (
	"net/mail"
	"strings"
	"unicode"

	autherror "github.com/Pelan2022/Koulio/internal/errors"
)

const minPasswordLength = 8

// ValidateEmail normalizes the address to lower case and rejects anything
// net/mail cannot parse.
func ValidateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", autherror.ErrInvalidEmail
	}
	return email, nil
}

// ValidatePassword enforces the strength policy: at least 8 characters with
// an upper-case letter, a lower-case letter, a digit and a special character.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return autherror.ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return autherror.ErrWeakPassword
	}
	return nil
}
