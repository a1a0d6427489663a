// Package apperr defines the error taxonomy shared by all domain services.
// Every client-visible failure maps to one of the kinds below; handlers
// translate kinds to HTTP statuses and anything unclassified surfaces as a
// generic internal error so storage detail never reaches the caller.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindPermissionDenied
	KindInvariantViolation
	KindDuplicate
	KindCapabilityNotSupported
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvariantViolation:
		return "invariant_violation"
	case KindDuplicate:
		return "duplicate_entity"
	case KindCapabilityNotSupported:
		return "capability_not_supported"
	default:
		return "internal_error"
	}
}

// Error is a client-safe error carrying a taxonomy kind.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(msg string) *Error { return New(KindValidation, msg) }

func Validationf(format string, args ...interface{}) *Error {
	return Newf(KindValidation, format, args...)
}

func NotFound(msg string) *Error         { return New(KindNotFound, msg) }
func PermissionDenied(msg string) *Error { return New(KindPermissionDenied, msg) }
func Invariant(msg string) *Error        { return New(KindInvariantViolation, msg) }
func Duplicate(msg string) *Error        { return New(KindDuplicate, msg) }
func NotSupported(msg string) *Error     { return New(KindCapabilityNotSupported, msg) }

// KindOf returns the taxonomy kind of err, or KindInternal for errors that
// did not originate from a domain service.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Message returns the client-safe message for err. Errors outside the
// taxonomy collapse to a generic message.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal server error"
}

// HTTPStatus maps a taxonomy kind to its HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied, KindCapabilityNotSupported:
		return http.StatusForbidden
	case KindDuplicate, KindInvariantViolation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
