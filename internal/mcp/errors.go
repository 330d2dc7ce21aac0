// Package mcp serves a notes store over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	nserrors "github.com/Aman-CERP/notesync/internal/errors"
)

// Custom MCP error codes for notesync.
const (
	// ErrCodeStoreLocked indicates another writer holds the store.
	ErrCodeStoreLocked = -32001

	// ErrCodeRecordMalformed indicates a stored record could not be read.
	ErrCodeRecordMalformed = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeFileNotFound indicates a note no longer exists on disk.
	ErrCodeFileNotFound = -32004

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("invalid parameters")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var nsErr *nserrors.NotesyncError
	if errors.As(err, &nsErr) {
		return mapNotesyncError(nsErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{
			Code:    ErrCodeMethodNotFound,
			Message: "Tool not found.",
		}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid parameters.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error.",
		}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapNotesyncError(ne *nserrors.NotesyncError) *MCPError {
	message := ne.Message
	if ne.Suggestion != "" {
		message = fmt.Sprintf("%s %s", ne.Message, ne.Suggestion)
	}

	switch ne.Code {
	case nserrors.ErrCodeStoreLocked:
		return &MCPError{Code: ErrCodeStoreLocked, Message: message}
	case nserrors.ErrCodeFileNotFound:
		return &MCPError{Code: ErrCodeFileNotFound, Message: message}
	case nserrors.ErrCodeRecordMalformed:
		return &MCPError{Code: ErrCodeRecordMalformed, Message: message}
	}

	if ne.Category == nserrors.CategoryValidation {
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	}
	return &MCPError{Code: ErrCodeInternalError, Message: message}
}
