package user

import (
	"errors"
	"fmt"
	"regexp"
)

// Validation lives here as plain functions so every mutation path calls it
// explicitly. Nothing is inferred from "did this field change".

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	MinPasswordLen = 8
	MinFullNameLen = 2
	MaxFullNameLen = 100
)

var (
	ErrInvalidEmail    = errors.New("email must be a valid email address")
	ErrPasswordTooWeak = fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	ErrInvalidFullName = fmt.Errorf("full name must be between %d and %d characters long", MinFullNameLen, MaxFullNameLen)
)

func ValidateEmail(email string) error {
	if !emailRe.MatchString(NormalizeEmail(email)) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidatePassword(plain string) error {
	if len(plain) < MinPasswordLen {
		return ErrPasswordTooWeak
	}
	return nil
}

func ValidateFullName(name string) error {
	n := len([]rune(name))
	if n < MinFullNameLen || n > MaxFullNameLen {
		return ErrInvalidFullName
	}
	return nil
}
