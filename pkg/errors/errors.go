// Package errors provides custom error types for the capitolwatch pipeline.
// These errors enable programmatic error checking across the fetch, ingest,
// and orchestration layers, so a transient source hiccup, a malformed record,
// and an unrecoverable job failure can each be handled differently.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's chain matches target.
// It's an alias for the standard library errors.Is.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// It's an alias for the standard library errors.As.
var As = errors.As

// Common sentinel errors for the pipeline
var (
	// ErrNotFound indicates that a requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrAPIKeyRequired indicates that an API key is required but not provided
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrSourceUnavailable indicates that an external source is temporarily unavailable
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited indicates that a source's rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrRetriesExhausted indicates that a request failed after all retry attempts
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrJobSkipped indicates that a sync job was skipped because an
	// upstream dependency failed
	ErrJobSkipped = errors.New("job skipped")
)

// NotFoundError represents an error when a record is not found in the store
type NotFoundError struct {
	Collection string
	Key        string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %s not found", e.Collection, e.Key)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(collection, key string) *NotFoundError {
	return &NotFoundError{Collection: collection, Key: key}
}

// ValidationError represents a single malformed record. Ingesters record
// these against run statistics and continue; they never abort a run.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents an error from an external data source API
type APIError struct {
	Source     string // Source name, e.g. "congress.gov" or "fec"
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrSourceUnavailable
	}
	if e.StatusCode == 404 {
		return target == ErrNotFound
	}
	return false
}

// Retryable reports whether the error is worth retrying with backoff.
// Rate limits, 5xx responses, and transport failures without a status are
// transient; everything else is not.
func (e *APIError) Retryable() bool {
	if e.StatusCode == 429 || e.StatusCode >= 500 {
		return true
	}
	return e.StatusCode == 0
}

// NewAPIError creates a new APIError
func NewAPIError(source string, statusCode int, message string) *APIError {
	return &APIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// StorageError represents an error from the document store
type StorageError struct {
	Operation  string // "upsert", "bulk_write", "find", "index"
	Collection string
	Err        error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s on %s: %v", e.Operation, e.Collection, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError
func NewStorageError(operation, collection string, err error) *StorageError {
	return &StorageError{Operation: operation, Collection: collection, Err: err}
}

// IngestError represents an unrecoverable failure of a whole ingestion job,
// as opposed to a ValidationError on a single record. The orchestrator skips
// downstream jobs when it sees one of these.
type IngestError struct {
	Job     string
	Message string
	Err     error
}

// Error implements the error interface
func (e *IngestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ingestion job %s failed: %s: %v", e.Job, e.Message, e.Err)
	}
	return fmt.Sprintf("ingestion job %s failed: %v", e.Job, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IngestError) Unwrap() error {
	return e.Err
}

// NewIngestError creates a new IngestError
func NewIngestError(job, message string, err error) *IngestError {
	return &IngestError{Job: job, Message: message, Err: err}
}

// ParseError represents an error when parsing source payloads
type ParseError struct {
	Format  string // "json", "xml"
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s parse error from %s: %s", e.Format, e.Source, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, source, message string, err error) *ParseError {
	return &ParseError{Format: format, Source: source, Message: message, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a single-record validation failure
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsSourceUnavailable checks if an error indicates source unavailability
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsRetryable reports whether err should be retried with backoff. Typed
// API errors decide for themselves; bare timeouts and rate limits qualify.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrSourceUnavailable)
}
