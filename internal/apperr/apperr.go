// Package apperr defines the domain error kinds the HTTP layer maps to
// status codes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindValidation marks a domain rule violation (HTTP 400).
	KindValidation Kind = iota
	// KindNotFound marks a missing entity (HTTP 404).
	KindNotFound
)

// Error is a domain error carrying a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Validationf builds a domain validation error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a missing-entity error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a domain validation error.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindValidation
}

// IsNotFound reports whether err is a missing-entity error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}
