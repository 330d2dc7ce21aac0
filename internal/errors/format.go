package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

func asNotesyncError(err error) *NotesyncError {
	var ne *NotesyncError
	if errors.As(err, &ne) {
		return ne
	}
	return Wrap(ErrCodeInternal, err)
}

// FormatForCLI formats an error for terminal output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ne := asNotesyncError(err)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ne.Message))

	if len(ne.Details) > 0 {
		keys := make([]string, 0, len(ne.Details))
		for k := range ne.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, ne.Details[k]))
		}
	}

	if ne.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", ne.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("  Code: %s\n", ne.Code))

	return sb.String()
}

type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error, used for MCP
// tool failures.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ne := asNotesyncError(err)
	je := jsonError{
		Code:       ne.Code,
		Message:    ne.Message,
		Category:   string(ne.Category),
		Severity:   string(ne.Severity),
		Details:    ne.Details,
		Suggestion: ne.Suggestion,
		Retryable:  ne.Retryable,
	}
	if ne.Cause != nil {
		je.Cause = ne.Cause.Error()
	}

	return json.Marshal(je)
}
