// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies an error into one of the orchestration error kinds.
// The kind decides how callers react: access and validation errors are never
// retried, transport errors bubble, resource errors leave the retry decision
// to the caller, consistency errors abort the attempted mutation.
type ErrorType string

const (
	ErrorTypeAccess      ErrorType = "access"
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeTransport   ErrorType = "transport"
	ErrorTypeResource    ErrorType = "resource"
	ErrorTypeConsistency ErrorType = "consistency"
)

// AppError is the internal error carrier. It keeps full context; the public
// surface is produced by Public.
type AppError struct {
	Type    ErrorType
	Message string
	Details string
	Cause   error
}

// New creates an error of the given kind.
func New(t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(t ErrorType, format string, args ...any) *AppError {
	return &AppError{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an underlying error with a kind and message.
func Wrap(cause error, t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message, Cause: cause}
}

// Wrapf wraps an underlying error with a kind and formatted message.
func Wrapf(cause error, t ErrorType, format string, args ...any) *AppError {
	return &AppError{Type: t, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithDetails attaches free-form detail text and returns the same error.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithDetailsf attaches formatted detail text and returns the same error.
func (e *AppError) WithDetailsf(format string, args ...any) *AppError {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Details != "" {
		msg += fmt.Sprintf(" (%s)", e.Details)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsType reports whether the outermost AppError in err's chain has the given
// kind. Kinds of AppErrors wrapped further down the chain are not consulted.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// TypeOf returns the kind of err, or the empty string for untyped errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// PublicError is the narrowed error exposed on the wire and to external
// callers. It preserves the kind and a human-readable message but hides the
// internal cause chain.
type PublicError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

func (e *PublicError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Public narrows err into its public form. Untyped errors are reported as
// transport failures so no internal detail leaks by default.
func Public(err error) *PublicError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.Details != "" {
			msg += fmt.Sprintf(" (%s)", appErr.Details)
		}
		return &PublicError{Type: appErr.Type, Message: msg}
	}
	return &PublicError{Type: ErrorTypeTransport, Message: "internal error"}
}
