package validators

import (
	"errors"
	"strings"
	"unicode"
)

// SpecialCharacters is the set a password must draw at least one symbol from
const SpecialCharacters = "!@#$%^&*()_+/,.?[]"

var (
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong   = errors.New("password is too long")
	ErrPasswordEmpty     = errors.New("no password provided")
	ErrPasswordNoUpper   = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoSpecial = errors.New("password must contain at least one of " + SpecialCharacters)
)

// PasswordValidator enforces the strength rule used for account and team
// passwords
func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < 8 {
		return ErrPasswordTooShort
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	if !strings.ContainsFunc(p, unicode.IsUpper) {
		return ErrPasswordNoUpper
	}

	if !strings.ContainsAny(p, SpecialCharacters) {
		return ErrPasswordNoSpecial
	}

	return nil
}
