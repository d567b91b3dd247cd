package service

import (
	"errors"

	"taskboard/internal/domain"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned for users whose active flag is off.
	ErrAccountDisabled = errors.New("account is deactivated")
	// ErrEmailTaken is returned when an email already belongs to another user.
	ErrEmailTaken = errors.New("email already registered")
	// ErrIncorrectPassword is returned when a password change quotes the wrong current password.
	ErrIncorrectPassword = errors.New("current password is incorrect")
	ErrUserNotFound      = errors.New("user not found")
	// ErrTaskNotFound also covers tasks owned by someone else.
	ErrTaskNotFound = errors.New("task not found")
)

// ValidationError is re-exported so callers of the service need not import domain.
type ValidationError = domain.ValidationError

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
