package errors

import (
	"errors"
	"fmt"
)

// ServiceError is the structured error type for titlesearch.
// It carries a stable code so transports can map it to a status.
type ServiceError struct {
	// Code is the unique error code (e.g., "ERR_404_QUERY_EMPTY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Sentinel errors for errors.Is checks. Matching is by code, so any
// ServiceError carrying the same code matches.
var (
	ErrUnknownCollection  = &ServiceError{Code: ErrCodeUnknownCollection}
	ErrUnknownLanguage    = &ServiceError{Code: ErrCodeUnknownLanguage}
	ErrEmptyQuery         = &ServiceError{Code: ErrCodeQueryEmpty}
	ErrRetrieverFailure   = &ServiceError{Code: ErrCodeRetrieverFailed}
	ErrIndexBuildFailure  = &ServiceError{Code: ErrCodeIndexBuildFailed}
	ErrIndexQueryFailure  = &ServiceError{Code: ErrCodeSearchFailed}
	ErrLanguageNotIndexed = &ServiceError{Code: ErrCodeLanguageNotIndexed}
)

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil && e.Message != e.Cause.Error() {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *ServiceError) Is(target error) bool {
	if t, ok := target.(*ServiceError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *ServiceError) WithDetail(key, value string) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new ServiceError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *ServiceError {
	return &ServiceError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a ServiceError from an existing error.
// The error's message becomes the ServiceError message.
func Wrap(code string, err error) *ServiceError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// UnknownCollection reports a collection name outside the closed set.
func UnknownCollection(name string) *ServiceError {
	return New(ErrCodeUnknownCollection, fmt.Sprintf("unknown collection %q", name), nil).
		WithDetail("collection", name)
}

// UnknownLanguage reports a language name outside the closed set.
func UnknownLanguage(name string) *ServiceError {
	return New(ErrCodeUnknownLanguage, fmt.Sprintf("unknown language %q", name), nil).
		WithDetail("language", name)
}

// EmptyQuery reports keyword input that normalized to zero tokens.
func EmptyQuery() *ServiceError {
	return New(ErrCodeQueryEmpty, "keywords must contain at least one token", nil)
}

// RetrieverFailure wraps a failed page fetch.
func RetrieverFailure(message string, cause error) *ServiceError {
	return New(ErrCodeRetrieverFailed, message, cause)
}

// IndexBuildFailure wraps a failed write or commit of a language index.
func IndexBuildFailure(message string, cause error) *ServiceError {
	return New(ErrCodeIndexBuildFailed, message, cause)
}

// IndexQueryFailure wraps a failure of the search engine on a well-formed query.
func IndexQueryFailure(message string, cause error) *ServiceError {
	return New(ErrCodeSearchFailed, message, cause)
}

// LanguageNotIndexed reports a language with no slot in a registry.
func LanguageNotIndexed(language string) *ServiceError {
	return New(ErrCodeLanguageNotIndexed, fmt.Sprintf("language %q is not indexed", language), nil).
		WithDetail("language", language)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ServiceError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a client input error.
func ValidationError(message string, cause error) *ServiceError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ServiceError {
	return New(ErrCodeInternal, message, cause)
}

// IsClientError reports whether err was caused by caller input.
// Client errors are never retried and map to a 4xx status.
func IsClientError(err error) bool {
	return GetCategory(err) == CategoryValidation
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a ServiceError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a ServiceError anywhere in the chain.
// Returns empty string if there is none.
func GetCategory(err error) Category {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}
