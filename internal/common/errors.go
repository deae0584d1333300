package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Failure taxonomy for the extraction pipeline. Heuristic ambiguity
// (missing date, missing total) never surfaces here; only structural
// failures do.
var (
	// ErrInvalidInput marks an empty or undecodable image/document.
	// Non-retryable without new input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDependencyUnavailable marks a required OCR or image-processing
	// capability missing from the runtime. A configuration problem, not
	// bad input.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrNoTextRecovered means the OCR pipeline ran but produced no
	// usable text. The caller should try a different capture.
	ErrNoTextRecovered = errors.New("no text recovered")

	// ErrNoTemplateMatch means the external structured extractor found
	// no matching vendor template for the document.
	ErrNoTemplateMatch = errors.New("no template matched document")

	// ErrEmptyRecord marks a Normalize call with an absent or empty
	// record. A caller contract violation, not a degraded result.
	ErrEmptyRecord = errors.New("empty record")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
