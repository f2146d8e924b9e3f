package ocr

import (
	"errors"
	"fmt"
)

// Typed recognition failures. Only ErrRecognitionTimeout is recoverable; the
// extractor may retry it once with a faster configuration. The other two are
// fatal and surfaced to the caller, because a degraded-but-wrong result is
// worse than a clear failure.
var (
	// ErrEngineUnavailable is returned when the recognition engine cannot be
	// reached or is not installed.
	ErrEngineUnavailable = errors.New("recognition engine is not available")

	// ErrLanguageUnsupported is returned when no trained data is installed
	// for the requested language.
	ErrLanguageUnsupported = errors.New("requested language has no recognition data installed")

	// ErrRecognitionTimeout is returned when a recognition pass exceeds its
	// bounded duration.
	ErrRecognitionTimeout = errors.New("recognition timed out")
)

// EngineError wraps recognition failures with context about the operation.
type EngineError struct {
	// Op is the operation that failed (e.g., "Recognize").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is chains.
func (e *EngineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewEngineError creates an EngineError with the specified operation and cause.
func NewEngineError(op string, err error, details string) *EngineError {
	return &EngineError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapEngineError wraps an error as an EngineError if it isn't already one.
func WrapEngineError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return err // Already wrapped
	}

	return NewEngineError(op, err, details)
}
