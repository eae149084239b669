// Package apperr defines the error kinds shared across the back office.
// Handlers match them with errors.Is and map them to HTTP statuses.
package apperr

import "errors"

var (
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrNotFound            = errors.New("not found")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidOTP          = errors.New("invalid otp")
	ErrExpired             = errors.New("session expired")
	ErrRevoked             = errors.New("admin access revoked")
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotAllowed          = errors.New("not allowed")
)
