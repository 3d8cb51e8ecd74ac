// Package errors provides error code definitions shared across the
// store, the import/export service, and the sidebar bridge.
//
// Codes are language-neutral status signals: surfaces look them up in
// the i18n catalog to produce user-facing text.
package errors

import "fmt"

// ErrorCode represents a stable machine-readable error code.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrInvalid    ErrorCode = "INVALID_INPUT"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrDuplicate  ErrorCode = "DUPLICATE"
	ErrValidation ErrorCode = "VALIDATION_ERROR"

	// Storage errors
	ErrStorage         ErrorCode = "STORAGE_ERROR"
	ErrStorageFallback ErrorCode = "STORAGE_FALLBACK_ERROR"
	ErrRecordMalformed ErrorCode = "RECORD_MALFORMED"

	// Prompt errors
	ErrPromptNotFound ErrorCode = "PROMPT_NOT_FOUND"
	ErrPromptInvalid  ErrorCode = "PROMPT_INVALID"

	// Import/Export errors
	ErrExportFailed ErrorCode = "EXPORT_FAILED"
	ErrImportFailed ErrorCode = "IMPORT_FAILED"
	ErrImportFormat ErrorCode = "IMPORT_FORMAT"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error is of a specific code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// CodeOf extracts the error code, defaulting to ErrInternal for errors
// raised outside this package.
func CodeOf(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrInternal
}
