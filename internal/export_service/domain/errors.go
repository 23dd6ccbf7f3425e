package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceNotFound indicates that no repository entry exists for the requested key.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrNotAFile indicates that the repository entry exists but holds no file content (e.g. a folder).
	ErrNotAFile = errors.New("resource is not a file")
	// ErrMissingSVG is returned when a chart export carries no SVG payload.
	ErrMissingSVG = errors.New("Missing 'svg' parameter")
	// ErrMissingConverter is returned when no converter exists for the requested chart type.
	ErrMissingConverter = errors.New("Missing converter.")
)

// ValidationError marks a request that can never succeed as sent: blank or invalid input,
// or an export type nothing can produce.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps err as a ValidationError.
func NewValidationError(err error) error {
	return &ValidationError{Err: err}
}

// UpstreamError wraps a failure reported by the repository or the query engine,
// including failures decoding what they returned.
type UpstreamError struct {
	Op  string // e.g. "get resource", "execute query"
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewUpstreamError wraps err as an UpstreamError for operation op.
func NewUpstreamError(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

// ErrorKind classifies err for logs and metrics: "validation", "upstream" or "internal".
func ErrorKind(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "validation"
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return "upstream"
	}
	return "internal"
}
