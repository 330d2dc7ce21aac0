// Package logging configures slog for notesync.
//
// Without --debug, only warnings and errors reach stderr as text. With
// --debug, JSON logs at debug level are written to ~/.notesync/logs/notesync.log
// with size-based rotation. The MCP server never logs to stdout or stderr
// because stdio carries the protocol stream.
package logging
