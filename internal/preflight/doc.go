// Package preflight diagnoses a notes directory before notesync works on it.
//
// The checks cover:
//   - configuration validity
//   - the notes corpus (at least one note)
//   - write permissions for the data directory
//   - free disk space (minimum 50MB)
//   - the open file limit watch mode needs (minimum 1024)
//   - stored rows that no longer parse as chunk records
//   - whether another process holds the store lock
//
// Use the Checker type to run all of them:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, "/path/to/notes")
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
