package errors

import (
	"errors"
	"fmt"
)

// NotesyncError is the structured error type for notesync.
// It carries enough context for logging and for the CLI to print a hint.
type NotesyncError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	Retryable bool

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *NotesyncError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *NotesyncError) Unwrap() error {
	return e.Cause
}

// Is matches another NotesyncError by code.
func (e *NotesyncError) Is(target error) bool {
	if t, ok := target.(*NotesyncError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *NotesyncError) WithDetail(key, value string) *NotesyncError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *NotesyncError) WithSuggestion(suggestion string) *NotesyncError {
	e.Suggestion = suggestion
	return e
}

// New creates a NotesyncError. Category, severity and the retryable flag
// are derived from the code.
func New(code string, message string, cause error) *NotesyncError {
	return &NotesyncError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a NotesyncError whose message is err's message.
func Wrap(code string, err error) *NotesyncError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *NotesyncError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates an input validation error.
func ValidationError(message string, cause error) *NotesyncError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *NotesyncError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable reports whether err, or any error it wraps, is a retryable
// NotesyncError.
func IsRetryable(err error) bool {
	var ne *NotesyncError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return false
}

// GetCode extracts the code of the first NotesyncError in err's chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ne *NotesyncError
	if errors.As(err, &ne) {
		return ne.Code
	}
	return ""
}

// GetCategory extracts the category of the first NotesyncError in err's chain.
func GetCategory(err error) Category {
	var ne *NotesyncError
	if errors.As(err, &ne) {
		return ne.Category
	}
	return ""
}
