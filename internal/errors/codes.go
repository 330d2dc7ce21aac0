// Package errors provides structured errors for notesync.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage and file errors
//   - 3XX: Record errors
//   - 4XX: Input validation errors
//   - 5XX: Internal errors
package errors

// Category classifies an error by the subsystem that raised it.
type Category string

const (
	CategoryConfig     Category = "CONFIG"
	CategoryIO         Category = "IO"
	CategoryRecord     Category = "RECORD"
	CategoryValidation Category = "VALIDATION"
	CategoryInternal   Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal means the command cannot continue.
	SeverityFatal Severity = "FATAL"
	// SeverityError means the operation failed.
	SeverityError Severity = "ERROR"
	// SeverityWarning means the item was skipped and work continued.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid  = "ERR_101_CONFIG_INVALID"
	ErrCodeConfigNotFound = "ERR_102_CONFIG_NOT_FOUND"

	// Storage and file errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeStoreLocked  = "ERR_202_STORE_LOCKED"
	ErrCodeStoreOpen    = "ERR_203_STORE_OPEN"

	// Record errors (300-399)
	ErrCodeRecordMalformed = "ERR_301_RECORD_MALFORMED"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryRecord
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStoreOpen:
		return SeverityFatal
	case ErrCodeRecordMalformed:
		// Malformed rows are dropped, never fatal to a pass.
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether rerunning the command may succeed.
// A held store lock clears once the other writer exits.
func isRetryableCode(code string) bool {
	return code == ErrCodeStoreLocked
}
