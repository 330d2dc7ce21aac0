// Package config loads notesync configuration.
//
// Values are layered in increasing precedence: built-in defaults, the user
// config ($XDG_CONFIG_HOME/notesync/config.yaml), the project file
// .notesync.yaml (or .notesync.yml) in the notes root, and NOTESYNC_*
// environment variables. The result is validated before use.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	nserrors "github.com/Aman-CERP/notesync/internal/errors"
)

// ProjectFileName is the per-corpus configuration file.
const ProjectFileName = ".notesync.yaml"

// Config is the complete notesync configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Paths      PathsConfig      `yaml:"paths"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Store      StoreConfig      `yaml:"store"`
	Reconcile  ReconcileConfig  `yaml:"reconcile"`
	Watch      WatchConfig      `yaml:"watch"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PathsConfig selects which files in the notes directory form the corpus.
type PathsConfig struct {
	// Extensions are the note file extensions, with leading dot.
	Extensions []string `yaml:"extensions"`
	// Exclude holds extra glob patterns; "dir/**" excludes a directory.
	Exclude []string `yaml:"exclude"`
}

// ChunkingConfig controls the markdown chunker.
type ChunkingConfig struct {
	MaxTokens int `yaml:"max_tokens"`
}

// EmbeddingsConfig controls the vectors the store attaches to records.
type EmbeddingsConfig struct {
	Dimensions int `yaml:"dimensions"`
	CacheSize  int `yaml:"cache_size"`
}

// StoreConfig locates the record store.
type StoreConfig struct {
	// DataDir is relative to the notes root unless absolute.
	DataDir string `yaml:"data_dir"`
	DBFile  string `yaml:"db_file"`
	CacheMB int    `yaml:"cache_mb"`
}

// ReconcileConfig tunes resync passes.
type ReconcileConfig struct {
	// Workers bounds concurrent file mapping during a resync.
	Workers int `yaml:"workers"`
	// ProgressBuffer is the capacity of a run's event channel.
	ProgressBuffer int `yaml:"progress_buffer"`
	// InsertBatch is the number of records inserted per progress step.
	InsertBatch int `yaml:"insert_batch"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig sets the level used by long-running commands.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Extensions: []string{".md", ".markdown"},
		},
		Chunking: ChunkingConfig{
			MaxTokens: 512,
		},
		Embeddings: EmbeddingsConfig{
			Dimensions: 256,
			CacheSize:  1000,
		},
		Store: StoreConfig{
			DataDir: ".notesync",
			DBFile:  "chunks.db",
			CacheMB: 16,
		},
		Reconcile: ReconcileConfig{
			Workers:        8,
			ProgressBuffer: 64,
			InsertBatch:    100,
		},
		Watch: WatchConfig{
			Debounce: "200ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetUserConfigPath returns the user configuration path following XDG:
// $XDG_CONFIG_HOME/notesync/config.yaml, else ~/.config/notesync/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "notesync", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "notesync", "config.yaml")
	}
	return filepath.Join(home, ".config", "notesync", "config.yaml")
}

// Load builds the configuration for the notes directory root.
func Load(root string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	for _, name := range []string{ProjectFileName, ".notesync.yml"} {
		path := filepath.Join(root, name)
		if fileExists(path) {
			if err := cfg.loadYAML(path); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nserrors.New(nserrors.ErrCodeConfigNotFound, "failed to read config file", err).
			WithDetail("path", path)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nserrors.ConfigError("failed to parse config file", err).
			WithDetail("path", path)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays the non-zero values of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Paths.Extensions) > 0 {
		c.Paths.Extensions = other.Paths.Extensions
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}
	if other.Chunking.MaxTokens != 0 {
		c.Chunking.MaxTokens = other.Chunking.MaxTokens
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}
	if other.Store.DataDir != "" {
		c.Store.DataDir = other.Store.DataDir
	}
	if other.Store.DBFile != "" {
		c.Store.DBFile = other.Store.DBFile
	}
	if other.Store.CacheMB != 0 {
		c.Store.CacheMB = other.Store.CacheMB
	}
	if other.Reconcile.Workers != 0 {
		c.Reconcile.Workers = other.Reconcile.Workers
	}
	if other.Reconcile.ProgressBuffer != 0 {
		c.Reconcile.ProgressBuffer = other.Reconcile.ProgressBuffer
	}
	if other.Reconcile.InsertBatch != 0 {
		c.Reconcile.InsertBatch = other.Reconcile.InsertBatch
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NOTESYNC_DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}
	if v := os.Getenv("NOTESYNC_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Reconcile.Workers = n
		}
	}
	if v := os.Getenv("NOTESYNC_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Chunking.MaxTokens = n
		}
	}
	if v := os.Getenv("NOTESYNC_EXTENSIONS"); v != "" {
		var exts []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exts = append(exts, e)
			}
		}
		c.Paths.Extensions = exts
	}
	if v := os.Getenv("NOTESYNC_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("NOTESYNC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	invalid := func(field, value, hint string) error {
		return nserrors.ConfigError(fmt.Sprintf("invalid %s", field), nil).
			WithDetail("value", value).
			WithSuggestion(hint)
	}

	if len(c.Paths.Extensions) == 0 {
		return invalid("paths.extensions", "[]", "list at least one note extension, e.g. .md")
	}
	for _, ext := range c.Paths.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return invalid("paths.extensions", ext, "extensions start with a dot")
		}
	}
	if c.Chunking.MaxTokens < 16 {
		return invalid("chunking.max_tokens", strconv.Itoa(c.Chunking.MaxTokens), "use 16 or more")
	}
	if c.Embeddings.Dimensions < 8 {
		return invalid("embeddings.dimensions", strconv.Itoa(c.Embeddings.Dimensions), "use 8 or more")
	}
	if c.Embeddings.CacheSize < 0 {
		return invalid("embeddings.cache_size", strconv.Itoa(c.Embeddings.CacheSize), "use 0 to disable the cache")
	}
	if c.Store.DBFile == "" {
		return invalid("store.db_file", "", "name the database file, e.g. chunks.db")
	}
	if c.Reconcile.Workers < 1 {
		return invalid("reconcile.workers", strconv.Itoa(c.Reconcile.Workers), "use 1 or more")
	}
	if c.Reconcile.ProgressBuffer < 1 {
		return invalid("reconcile.progress_buffer", strconv.Itoa(c.Reconcile.ProgressBuffer), "use 1 or more")
	}
	if c.Reconcile.InsertBatch < 1 {
		return invalid("reconcile.insert_batch", strconv.Itoa(c.Reconcile.InsertBatch), "use 1 or more")
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return invalid("watch.debounce", c.Watch.Debounce, "use a Go duration such as 200ms")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level", c.Logging.Level, "use debug, info, warn or error")
	}
	return nil
}

// DataDir resolves the store directory for the notes root.
func (c *Config) DataDir(root string) string {
	if filepath.IsAbs(c.Store.DataDir) {
		return c.Store.DataDir
	}
	return filepath.Join(root, c.Store.DataDir)
}

// DBPath resolves the database file for the notes root.
func (c *Config) DBPath(root string) string {
	return filepath.Join(c.DataDir(root), c.Store.DBFile)
}

// DebounceDuration returns the parsed watch debounce window.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 200 * time.Millisecond
	}
	return d
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
