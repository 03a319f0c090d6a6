// Package common defines shared constants and sentinel errors used across
// client and server layers of tripkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorUnavailable  = errors.New("server unavailable")

	// Validation errors.
	ErrorInvalidField = errors.New("invalid field name")
	ErrorInvalidValue = errors.New("invalid value")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
