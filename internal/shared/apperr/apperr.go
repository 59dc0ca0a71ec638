// Package apperr defines the error taxonomy shared by services and the HTTP error pipeline.
// Every failure that leaves a service is an *Error carrying a Kind (which fixes the HTTP status)
// and a step code that pins down exactly which step produced it.
package apperr

import (
	"errors"
	"net/http"

	"github.com/samber/oops"
)

type Kind string

const (
	Validation       Kind = "validation"
	Unauthorized     Kind = "unauthorized"
	Forbidden        Kind = "forbidden"
	NotFound         Kind = "not_found"
	MethodNotAllowed Kind = "method_not_allowed"
	TooManyRequests  Kind = "too_many_requests"
	Internal         Kind = "internal"
)

// CodeUnknown tags errors that reached the pipeline without a step code.
const CodeUnknown = "UNKNOWN"

func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Message is the caller-facing summary for the kind.
func (k Kind) Message() string {
	switch k {
	case Validation:
		return "Validation error"
	case Unauthorized:
		return "Unauthorized"
	case Forbidden:
		return "Forbidden"
	case NotFound:
		return "Not found"
	case MethodNotAllowed:
		return "Method not allowed"
	case TooManyRequests:
		return "Too many requests"
	default:
		return "Internal server error"
	}
}

type Error struct {
	Kind Kind
	Code string
	// Detail is safe to show to the caller (validation failures only).
	Detail string
	cause  error
}

// New creates an error with no underlying cause.
func New(kind Kind, code string) *Error {
	return Wrap(kind, code, errors.New(kind.Message()))
}

// Wrap annotates cause with a kind and step code. The cause keeps its own oops context and
// gains a stack trace captured here.
func Wrap(kind Kind, code string, cause error) *Error {
	if cause == nil {
		cause = errors.New(kind.Message())
	}
	return &Error{
		Kind:  kind,
		Code:  code,
		cause: oops.With("kind", string(kind), "step", code).Wrap(cause),
	}
}

// Invalid creates a Validation error whose detail is shown to the caller.
func Invalid(code string, cause error) *Error {
	e := Wrap(Validation, code, cause)
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

func (e *Error) Error() string {
	return e.Code + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Message is the caller-facing message, including the detail when there is one.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Kind.Message() + ": " + e.Detail
	}
	return e.Kind.Message()
}

// Stack returns the stack trace captured when the error was created.
func (e *Error) Stack() string {
	if o, ok := oops.AsOops(e.cause); ok {
		return o.Stacktrace()
	}
	return ""
}

// Context returns the merged oops context of the cause chain.
func (e *Error) Context() map[string]any {
	if o, ok := oops.AsOops(e.cause); ok {
		return o.Context()
	}
	return nil
}

// From returns err as an *Error. Errors without a kind become Internal so that an unexpected
// failure can never be rendered as anything but a 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(Internal, CodeUnknown, err)
}
