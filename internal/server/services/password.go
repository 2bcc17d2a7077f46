package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/machrent/machrent/internal/common"
)

const minPasswordLength = 8

// commonPasswords are rejected regardless of composition.
var commonPasswords = []string{
	"password",
	"12345678",
	"qwerty",
	"admin123",
	"password123",
	"letmein",
	"welcome",
	"monkey",
	"sunshine",
	"iloveyou",
}

// ValidatePassword enforces the credential policy. Every failure wraps
// common.ErrWeakPassword so callers can match the class with errors.Is while
// still surfacing the concrete reason.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", common.ErrWeakPassword, minPasswordLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return fmt.Errorf("%w: must contain an uppercase letter", common.ErrWeakPassword)
	}
	if !hasLower {
		return fmt.Errorf("%w: must contain a lowercase letter", common.ErrWeakPassword)
	}
	if !hasDigit {
		return fmt.Errorf("%w: must contain a digit", common.ErrWeakPassword)
	}

	lowered := strings.ToLower(password)
	for _, candidate := range commonPasswords {
		if lowered == candidate {
			return fmt.Errorf("%w: too common", common.ErrWeakPassword)
		}
	}
	return nil
}
