// Package apperr defines the error classes surfaced to the flows and the
// notices shown for them.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation marks a local, pre-network input problem.
	ErrValidation = errors.New("validation failed")
	// ErrAuth marks credentials rejected by the identity backend.
	ErrAuth = errors.New("authentication failed")
	// ErrNetwork marks a failure to reach the backend.
	ErrNetwork = errors.New("network unavailable")
	// ErrTimeout marks a request that exceeded its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrServer marks a failure reported by the backend for a well-formed request.
	ErrServer = errors.New("server error")
	// ErrNotFound marks a missing plan or resource.
	ErrNotFound = errors.New("not found")
	// ErrMalformedResponse marks a response that does not match its schema.
	ErrMalformedResponse = errors.New("malformed response")
)

// ValidationError carries field-level messages keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidation builds a ValidationError from a field map.
func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Field returns the message for a field, if any.
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

// RequestError describes a failed call to the backend.
type RequestError struct {
	Op     string
	Status int
	Kind   error
	Err    error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the classification and the cause.
func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether the user may simply try again.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}

// UserMessage maps an error to the notice shown to the traveller. Auth
// failures deliberately carry no detail.
func UserMessage(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "Please fill in all required fields"
	case errors.Is(err, ErrAuth):
		return "Please check your credentials and try again"
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrNetwork):
		return "Connection problem. Please try again"
	case errors.Is(err, ErrNotFound):
		return "This item doesn't exist or has been removed"
	case errors.Is(err, ErrServer), errors.Is(err, ErrMalformedResponse):
		return "Please try again with different details"
	default:
		return "Something went wrong. Please try again"
	}
}
