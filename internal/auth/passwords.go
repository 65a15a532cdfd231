package auth

import (
	"fmt"
	"unicode"

	"github.com/desertthunder/customify/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a stored bcrypt hash.
// Returns [shared.ErrInvalidCredentials] on mismatch.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return shared.ErrInvalidCredentials
	}
	return nil
}

// ValidatePassword enforces the registration password policy: at least
// [MinPasswordLength] characters with an uppercase letter, a lowercase letter,
// a digit, and a special character.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", shared.ErrInvalidInput, MinPasswordLength)
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

	switch {
	case !hasUpper:
		return fmt.Errorf("%w: password must contain an uppercase letter", shared.ErrInvalidInput)
	case !hasLower:
		return fmt.Errorf("%w: password must contain a lowercase letter", shared.ErrInvalidInput)
	case !hasDigit:
		return fmt.Errorf("%w: password must contain a digit", shared.ErrInvalidInput)
	case !hasSpecial:
		return fmt.Errorf("%w: password must contain a special character", shared.ErrInvalidInput)
	}

	return nil
}
