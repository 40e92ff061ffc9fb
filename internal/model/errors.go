package model

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every producer (HTTP, chat, MCP, CLI).
var (
	// ErrValidation is the kind of every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers both "absent" and "owned by someone else".
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is returned when no usable credential can be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTransient marks backing store timeouts and busy conditions; callers may retry.
	ErrTransient = errors.New("store temporarily unavailable")
)

// ValidationError names the offending field of a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a *ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Error kinds as rendered to clients.
const (
	KindValidation = "validation"
	KindAuth       = "auth"
	KindNotFound   = "not_found"
	KindTransient  = "transient"
	KindInternal   = "internal"
)

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthenticated):
		return KindAuth
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindInternal
	}
}
