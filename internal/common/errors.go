// Package common defines shared constants and sentinel errors used across
// client and server layers of userkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Directory-level errors.
	ErrNotFound         = errors.New("not found")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrStoreUnavailable = errors.New("user store unavailable")

	// Service-level errors.
	ErrInternal    = errors.New("internal error")
	ErrLoginFailed = errors.New("wrong username or password")
	ErrValidation  = errors.New("validation error")

	// Access errors. ErrUnauthorized wraps the token reason.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
