package services

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation_error"
	KindRateLimited   ErrorKind = "rate_limited"
	KindExtraction    ErrorKind = "extraction_error"
	KindConfiguration ErrorKind = "configuration_error"
	KindUpstream      ErrorKind = "upstream_error"
)

// Extraction failure reasons.
const (
	ReasonEmptyDocument      = "empty_document"
	ReasonNoText             = "no_text"
	ReasonUnreadableDocument = "unreadable_document"
)

// AppError is a request-terminating failure with a user-facing label and details.
type AppError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Details string
	Reason  string
	Err     error

	// RetryAfter is set for rate-limited errors, in seconds.
	RetryAfter int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message, details string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Status:  http.StatusBadRequest,
		Message: message,
		Details: details,
	}
}

func NewRateLimitedError(retryAfterSeconds int) *AppError {
	return &AppError{
		Kind:    KindRateLimited,
		Status:  http.StatusTooManyRequests,
		Message: "Too many requests",
		Details: fmt.Sprintf("Rate limit exceeded. Please wait %d seconds before trying again.", retryAfterSeconds),

		RetryAfter: retryAfterSeconds,
	}
}

func NewExtractionError(reason string, err error) *AppError {
	appErr := &AppError{
		Kind:   KindExtraction,
		Status: http.StatusUnprocessableEntity,
		Reason: reason,
		Err:    err,
	}

	switch reason {
	case ReasonEmptyDocument:
		appErr.Message = "PDF file is empty"
		appErr.Details = "The uploaded PDF contains no data. Please upload a valid resume."
	case ReasonNoText:
		appErr.Message = "No text found in PDF"
		appErr.Details = "No text could be extracted. The PDF might be scanned images (use OCR) or empty."
	default:
		appErr.Reason = ReasonUnreadableDocument
		appErr.Message = "Could not read PDF"
		appErr.Details = "Failed to read PDF. The file may be corrupted or password-protected."
	}

	return appErr
}

func NewConfigurationError(message, details string) *AppError {
	return &AppError{
		Kind:    KindConfiguration,
		Status:  http.StatusInternalServerError,
		Message: message,
		Details: details,
	}
}

// NewUpstreamError hides the provider error behind a generic message; err is kept for logs only.
func NewUpstreamError(err error) *AppError {
	return &AppError{
		Kind:    KindUpstream,
		Status:  http.StatusInternalServerError,
		Message: "Failed to process request",
		Details: "The AI service is temporarily unavailable. Please try again.",
		Err:     err,
	}
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ExtractionReason returns the extraction failure reason carried by err, or "".
func ExtractionReason(err error) string {
	if appErr, ok := AsAppError(err); ok && appErr.Kind == KindExtraction {
		return appErr.Reason
	}
	return ""
}
