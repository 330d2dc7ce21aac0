package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotesyncError_Unwrap_PreservesCause(t *testing.T) {
	// Given: an underlying error
	cause := errors.New("open chunks.db: permission denied")

	// When: wrapping it
	err := New(ErrCodeStoreOpen, "cannot open store", cause)

	// Then: the chain reaches the cause
	require.NotNil(t, err)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestNotesyncError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{"config", ErrCodeConfigInvalid, "bad workers", "[ERR_101_CONFIG_INVALID] bad workers"},
		{"lock", ErrCodeStoreLocked, "store busy", "[ERR_202_STORE_LOCKED] store busy"},
		{"record", ErrCodeRecordMalformed, "missing content", "[ERR_301_RECORD_MALFORMED] missing content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.code, tt.message, nil).Error())
		})
	}
}

func TestNotesyncError_Is_MatchesByCode(t *testing.T) {
	a := New(ErrCodeStoreLocked, "first", nil)
	b := New(ErrCodeStoreLocked, "second", nil)
	c := New(ErrCodeInvalidInput, "other", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestNew_DerivesCategorySeverityAndRetry(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeConfigNotFound, CategoryConfig, SeverityError, false},
		{ErrCodeStoreLocked, CategoryIO, SeverityError, true},
		{ErrCodeStoreOpen, CategoryIO, SeverityFatal, false},
		{ErrCodeRecordMalformed, CategoryRecord, SeverityWarning, false},
		{ErrCodeInvalidInput, CategoryValidation, SeverityError, false},
		{ErrCodeInternal, CategoryInternal, SeverityError, false},
		{"BAD", CategoryInternal, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestHelpers_SearchWrappedChain(t *testing.T) {
	// Given: a NotesyncError wrapped by fmt.Errorf
	inner := New(ErrCodeStoreLocked, "locked", nil)
	outer := fmt.Errorf("resync: %w", inner)

	// Then: helpers look through the wrapper
	assert.Equal(t, ErrCodeStoreLocked, GetCode(outer))
	assert.Equal(t, CategoryIO, GetCategory(outer))
	assert.True(t, IsRetryable(outer))

	assert.Empty(t, GetCode(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestWithDetailAndSuggestion_Chain(t *testing.T) {
	err := ConfigError("invalid reconcile.workers", nil).
		WithDetail("value", "0").
		WithSuggestion("set reconcile.workers to at least 1")

	assert.Equal(t, "0", err.Details["value"])
	assert.Equal(t, "set reconcile.workers to at least 1", err.Suggestion)
}

func TestFormatForCLI(t *testing.T) {
	t.Run("structured error with hint and details", func(t *testing.T) {
		err := New(ErrCodeStoreLocked, "store is in use", nil).
			WithDetail("lock", "/n/.notesync/notesync.lock").
			WithSuggestion("wait for the other notesync process to finish")

		out := FormatForCLI(err)

		assert.Equal(t,
			"Error: store is in use\n"+
				"  lock: /n/.notesync/notesync.lock\n"+
				"  Hint: wait for the other notesync process to finish\n"+
				"  Code: ERR_202_STORE_LOCKED\n",
			out)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		out := FormatForCLI(errors.New("boom"))
		assert.Contains(t, out, "Error: boom")
		assert.Contains(t, out, ErrCodeInternal)
	})

	t.Run("nil", func(t *testing.T) {
		assert.Empty(t, FormatForCLI(nil))
	})
}

func TestFormatJSON_IncludesCause(t *testing.T) {
	err := New(ErrCodeFileNotFound, "note missing", errors.New("stat /n/a.md: no such file"))

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeFileNotFound, decoded["code"])
	assert.Equal(t, "IO", decoded["category"])
	assert.Equal(t, "stat /n/a.md: no such file", decoded["cause"])
}
