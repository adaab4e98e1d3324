package service

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateUsername is returned when registering a username that is taken.
	ErrDuplicateUsername = errors.New("username is already taken")
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken is returned when a refresh token is absent, mismatched or expired.
	ErrInvalidToken = errors.New("invalid or expired refresh token")
	// ErrUnauthorized is returned when an access token is missing or fails verification.
	ErrUnauthorized = errors.New("missing or invalid access token")
	// ErrForbidden is returned when a valid access token lacks a required role.
	ErrForbidden = errors.New("insufficient role")
	// ErrValidation wraps malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidReference is returned when a foreign key points at a missing row.
	ErrInvalidReference = errors.New("referenced resource does not exist")
	// ErrStorageUnavailable is returned by attachment operations when no bucket is configured.
	ErrStorageUnavailable = errors.New("attachment storage is not configured")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
