// Package errors provides structured error handling for titlesearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (catalog database, files)
//   - 4XX: Validation errors (client input)
//   - 5XX: Internal errors (index build and query)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates catalog and file I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates client input errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates index build or query errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but the process continues.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeCatalogUnavailable = "ERR_201_CATALOG_UNAVAILABLE"
	ErrCodeRetrieverFailed    = "ERR_207_RETRIEVER_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty        = "ERR_404_QUERY_EMPTY"
	ErrCodeUnknownCollection = "ERR_407_UNKNOWN_COLLECTION"
	ErrCodeUnknownLanguage   = "ERR_408_UNKNOWN_LANGUAGE"
	ErrCodeRateLimited       = "ERR_429_RATE_LIMITED"

	// Internal errors (500-599)
	ErrCodeInternal           = "ERR_501_INTERNAL"
	ErrCodeSearchFailed       = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexBuildFailed   = "ERR_505_INDEX_BUILD_FAILED"
	ErrCodeLanguageNotIndexed = "ERR_506_LANGUAGE_NOT_INDEXED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "101" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigNotFound, ErrCodeConfigInvalid, ErrCodeCatalogUnavailable:
		return SeverityFatal
	case ErrCodeRetrieverFailed, ErrCodeIndexBuildFailed:
		// The previous index keeps serving; the next tick retries.
		return SeverityWarning
	}
	return SeverityError
}
