// Package apperr defines the typed failures returned by services. Every
// anticipated failure carries a stable Kind that transports map to a status
// code; anything without a Kind is treated as an internal error.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the machine-distinguishable category of a failure.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindConflict               Kind = "conflict"
	KindUnauthorized           Kind = "unauthorized"
	KindNotFound               Kind = "not_found"
	KindInsufficientFunds      Kind = "insufficient_funds"
	KindIncompleteRegistration Kind = "incomplete_registration"
	KindUpstream               Kind = "upstream"
	KindInternal               Kind = "internal"
)

// Error is a typed failure with a human readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind when the target is a bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels usable with errors.Is.
var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrConflict               = &Error{Kind: KindConflict}
	ErrUnauthorized           = &Error{Kind: KindUnauthorized}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrInsufficientFunds      = &Error{Kind: KindInsufficientFunds}
	ErrIncompleteRegistration = &Error{Kind: KindIncompleteRegistration}
	ErrUpstream               = &Error{Kind: KindUpstream}
)

func Validation(msg string) error   { return &Error{Kind: KindValidation, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }

func InsufficientFunds(msg string) error {
	return &Error{Kind: KindInsufficientFunds, Message: msg}
}

func IncompleteRegistration(msg string) error {
	return &Error{Kind: KindIncompleteRegistration, Message: msg}
}

// Upstream wraps a failure of an external collaborator.
func Upstream(msg string, err error) error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind onto its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindInsufficientFunds, KindIncompleteRegistration:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
