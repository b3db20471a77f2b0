// Package model holds the Identity Toolkit collaborator's user record.
// Trimmed from internal/auth's multitenant User down to the fields the
// emulator's in-memory table actually needs (spec.md §6): no persistence,
// no tenancy, no role/permission bookkeeping.
package model

import (
	"errors"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidPassword = errors.New("password must be at least 6 characters")
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already in use")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// User is the emulator's record for one Identity Toolkit account.
type User struct {
	LocalID      string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// ValidateEmail matches the Identity Toolkit emulator's lax validation: it
// rejects obviously malformed addresses but does not attempt deliverability
// checks.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the Identity Toolkit minimum length.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return ErrInvalidPassword
	}
	return nil
}

// SetPassword hashes and stores password.
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
