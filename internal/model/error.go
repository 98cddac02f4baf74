package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so they can be mapped to HTTP status codes
// and user-facing messages only at the handler boundary.
type ErrorKind string

const (
	ErrValidation        ErrorKind = "validation"
	ErrInsufficientFunds ErrorKind = "insufficient_funds"
	ErrNetwork           ErrorKind = "network"
	ErrConfiguration     ErrorKind = "configuration"
)

// PayError is a structured error carrying its kind through the call stack.
type PayError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *PayError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *PayError) Unwrap() error { return e.Err }

// Validationf builds a validation error.
func Validationf(format string, args ...any) *PayError {
	return &PayError{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// InsufficientFundsf builds an insufficient-funds error.
func InsufficientFundsf(format string, args ...any) *PayError {
	return &PayError{Kind: ErrInsufficientFunds, Msg: fmt.Sprintf(format, args...)}
}

// Networkf wraps a chain/RPC failure.
func Networkf(err error, format string, args ...any) *PayError {
	return &PayError{Kind: ErrNetwork, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Configurationf builds a configuration error. The wrapped error is kept for
// logs only; handlers must not leak it to clients.
func Configurationf(err error, format string, args ...any) *PayError {
	return &PayError{Kind: ErrConfiguration, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the error kind, defaulting to ErrNetwork for plain errors
// coming out of the SDK.
func KindOf(err error) ErrorKind {
	var pe *PayError
	if errors.As(err, &pe) && pe != nil {
		return pe.Kind
	}
	return ErrNetwork
}

// AsPayError converts any error to a *PayError, wrapping plain errors as
// network failures.
func AsPayError(err error) *PayError {
	if err == nil {
		return nil
	}
	var pe *PayError
	if errors.As(err, &pe) {
		return pe
	}
	return &PayError{Kind: ErrNetwork, Msg: "operation failed", Err: err}
}

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
