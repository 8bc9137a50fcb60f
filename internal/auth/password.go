// Package auth hashes passwords and issues the tokens that identify API users.
package auth

import (
	"errors"
	"fmt"

	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost used for new passwords.
const HashCost = 10

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) < budgetbuddy.MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", budgetbuddy.ErrInvalidInput, budgetbuddy.MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash.
// A mismatch returns budgetbuddy.ErrUnauthorized.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return budgetbuddy.ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("%w: %w", budgetbuddy.ErrUnauthorized, err)
	}
	return nil
}
