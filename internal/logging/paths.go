package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.notesync/logs, or a directory under the temp dir
// when the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".notesync", "logs")
	}
	return filepath.Join(home, ".notesync", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "notesync.log")
}
