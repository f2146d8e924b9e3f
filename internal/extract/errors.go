package extract

import (
	"errors"
	"fmt"

	"hwocr/internal/ocr"
	"hwocr/pkg/models"
)

// FailureKind enumerates the user-visible extraction failure classes.
type FailureKind string

const (
	KindEngineUnavailable   FailureKind = "engine_unavailable"
	KindLanguageUnsupported FailureKind = "language_unsupported"
	KindRecognitionTimeout  FailureKind = "recognition_timeout"
	KindUnsupportedFormat   FailureKind = "unsupported_format"
)

// ExtractionError is the fatal outcome of an extraction request. Message is
// safe to show to users; the raw engine error stays in Err for logs only.
type ExtractionError struct {
	Kind    FailureKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Failure converts the error to its wire shape.
func (e *ExtractionError) Failure() models.ExtractionFailure {
	return models.ExtractionFailure{
		Error:     e.Message,
		ErrorKind: string(e.Kind),
	}
}

// newExtractionError builds a failure with a fixed human-readable message.
func newExtractionError(kind FailureKind, message string, cause error) *ExtractionError {
	return &ExtractionError{Kind: kind, Message: message, Err: cause}
}

// fromEngineError maps an adapter failure onto the enumerated failure kinds
// with canned messages, so internal engine error text never reaches users.
func fromEngineError(err error) *ExtractionError {
	switch {
	case errors.Is(err, ocr.ErrLanguageUnsupported):
		return newExtractionError(KindLanguageUnsupported,
			"no recognition data is installed for the requested language", err)
	case errors.Is(err, ocr.ErrRecognitionTimeout):
		return newExtractionError(KindRecognitionTimeout,
			"text recognition timed out before producing a result", err)
	default:
		return newExtractionError(KindEngineUnavailable,
			"the text recognition engine is currently unavailable", err)
	}
}
