// Package errors provides structured error handling for Songbook.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (SQLite, transactions)
//   - 3XX: Corpus loading errors (HTTP, asset format)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
//   - 6XX: Domain-invariant errors (collection membership)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates database and transaction errors.
	CategoryStorage Category = "STORAGE"
	// CategoryCorpus indicates corpus fetch and parse errors.
	CategoryCorpus Category = "CORPUS"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
	// CategoryDomain indicates domain-invariant violations.
	// Callers match these with errors.Is to drive user feedback.
	CategoryDomain Category = "DOMAIN"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityError indicates operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates an expected, user-correctable failure.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeStorageOpen   = "ERR_201_STORAGE_OPEN"
	ErrCodeStorageTx     = "ERR_202_STORAGE_TX"
	ErrCodeStorageLocked = "ERR_203_STORAGE_LOCKED"

	// Corpus errors (300-399)
	ErrCodeCorpusFetch       = "ERR_301_CORPUS_FETCH"
	ErrCodeCorpusContentType = "ERR_302_CORPUS_CONTENT_TYPE"
	ErrCodeCorpusMalformed   = "ERR_303_CORPUS_MALFORMED"

	// Validation errors (400-499)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidNumber = "ERR_402_INVALID_NUMBER"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_502_SEARCH_FAILED"

	// Domain-invariant errors (600-699)
	ErrCodeDuplicateMembership = "ERR_601_SONG_ALREADY_IN_COLLECTION"
	ErrCodeLinkNotFound        = "ERR_602_LINK_NOT_FOUND"
	ErrCodeCollectionNotFound  = "ERR_603_COLLECTION_NOT_FOUND"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "201" from "ERR_201_STORAGE_OPEN")
	numStr := code[4:7]
	if len(numStr) < 1 {
		return CategoryInternal
	}

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryCorpus
	case '4':
		return CategoryValidation
	case '6':
		return CategoryDomain
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// Domain-invariant violations are expected user-level outcomes.
	if categoryFromCode(code) == CategoryDomain {
		return SeverityWarning
	}
	return SeverityError
}
