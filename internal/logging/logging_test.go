package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	assert.Equal(t, "notesync.log", filepath.Base(path))
	assert.Contains(t, path, ".notesync")
}

func TestConfigs(t *testing.T) {
	assert.Empty(t, DefaultConfig().FilePath)
	assert.Equal(t, "warn", DefaultConfig().Level)

	debug := DebugConfig()
	assert.Equal(t, "debug", debug.Level)
	assert.Equal(t, DefaultLogPath(), debug.FilePath)

	server := ServerConfig("info")
	assert.False(t, server.WriteToStderr)
	assert.Equal(t, "info", server.Level)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, parseLevel(in))
		})
	}
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: a file-only debug configuration
	path := filepath.Join(t.TempDir(), "logs", "notesync.log")
	logger, cleanup, err := Setup(Config{Level: "debug", FilePath: path, MaxSizeMB: 1, MaxFiles: 2})
	require.NoError(t, err)

	// When: logging a record
	logger.Debug("resync started", slog.String("root", "/n"))
	cleanup()

	// Then: the file holds one JSON line with the attributes
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"msg":"resync started"`)
	assert.Contains(t, line, `"root":"/n"`)
}

func TestSetup_NoFilePath(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "error"})
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, logger)
}

func TestRotatingWriter_Rotates(t *testing.T) {
	// Given: a writer already holding content at its size limit
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	w.maxSize = 16

	// When: writing past the limit three times
	for i := 0; i < 3; i++ {
		_, err := w.Write([]byte("0123456789abcdef"))
		require.NoError(t, err)
	}

	// Then: the current file and two rotated files exist, no more
	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "a.log"), 1, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
