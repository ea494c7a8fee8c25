package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions. Typed errors below unwrap
// to these so callers can branch with errors.Is.
var (
	// ErrNotFound indicates that a requested record or identifier was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates that an upstream rate-limited the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrPermanent indicates a permanent client error (HTTP 4xx other than
	// 429) that must not be retried.
	ErrPermanent = errors.New("permanent client error")

	// ErrExhausted indicates that all retry attempts or all resolution
	// tiers were exhausted without success.
	ErrExhausted = errors.New("attempts exhausted")

	// ErrParse indicates malformed or unexpected markup from an upstream.
	ErrParse = errors.New("parse failure")

	// ErrNoOpenAccess indicates that no open-access location exists for a DOI.
	ErrNoOpenAccess = errors.New("no open access location")

	// ErrTitleMismatch indicates that a scraped result's title fell below
	// the similarity threshold against the known title.
	ErrTitleMismatch = errors.New("title similarity below threshold")
)

// ValidationError reports an invalid field in a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// PermanentError is a non-retryable HTTP client error (4xx except 429).
type PermanentError struct {
	Source     string
	StatusCode int
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s returned permanent client error %d", e.Source, e.StatusCode)
}

// Unwrap returns the underlying sentinel for use with errors.Is.
func (e *PermanentError) Unwrap() error {
	return ErrPermanent
}

// ExhaustedError reports that a retry loop ran out of attempts. LastStatus
// holds the final HTTP status when the last failure was an HTTP error, 0
// for transport-level failures.
type ExhaustedError struct {
	Source     string
	Attempts   int
	LastStatus int
	Cause      error
}

func (e *ExhaustedError) Error() string {
	if e.LastStatus != 0 {
		return fmt.Sprintf("%s: exhausted %d attempts, last status %d", e.Source, e.Attempts, e.LastStatus)
	}
	return fmt.Sprintf("%s: exhausted %d attempts: %v", e.Source, e.Attempts, e.Cause)
}

// Unwrap returns the underlying sentinel for use with errors.Is.
func (e *ExhaustedError) Unwrap() error {
	return ErrExhausted
}

// ParseError reports malformed or unexpected markup from an upstream.
// Parse failures are logged and treated as empty results by retrievers,
// triggering fallback to the next tier rather than propagating.
type ParseError struct {
	Source  string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// Unwrap returns the underlying sentinel for use with errors.Is.
func (e *ParseError) Unwrap() error {
	return ErrParse
}

// RateLimitError reports a 429 response with the server-directed delay.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
}

// Unwrap returns the underlying sentinel for use with errors.Is.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewParseError creates a new ParseError.
func NewParseError(source, message string, cause error) *ParseError {
	return &ParseError{Source: source, Message: message, Cause: cause}
}
