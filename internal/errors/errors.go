package errors

import (
	"fmt"
)

// SongbookError is the structured error type for Songbook.
// It provides context for error handling, logging, and user presentation.
type SongbookError struct {
	// Code is the unique error code (e.g., "ERR_602_LINK_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, Domain, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *SongbookError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SongbookError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SongbookError.
func (e *SongbookError) Is(target error) bool {
	if t, ok := target.(*SongbookError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SongbookError) WithDetail(key, value string) *SongbookError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new SongbookError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *SongbookError {
	return &SongbookError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a SongbookError from an existing error.
// The error's message becomes the SongbookError message.
func Wrap(code string, err error) *SongbookError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// StorageError creates a storage/transaction-related error.
func StorageError(message string, cause error) *SongbookError {
	return New(ErrCodeStorageTx, message, cause)
}

// CorpusError creates a corpus-loading error.
func CorpusError(message string, cause error) *SongbookError {
	return New(ErrCodeCorpusFetch, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *SongbookError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SongbookError {
	return New(ErrCodeInternal, message, cause)
}

// IsDomain reports whether err is a domain-invariant violation.
// Domain errors carry stable messages the UI layer maps to feedback.
func IsDomain(err error) bool {
	for err != nil {
		if se, ok := err.(*SongbookError); ok {
			return se.Category == CategoryDomain
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
