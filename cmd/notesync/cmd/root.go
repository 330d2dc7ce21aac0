// Package cmd provides the CLI commands for notesync.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	nserrors "github.com/Aman-CERP/notesync/internal/errors"
	"github.com/Aman-CERP/notesync/internal/logging"
	"github.com/Aman-CERP/notesync/internal/profiling"
	"github.com/Aman-CERP/notesync/pkg/version"
)

// Global flags
var (
	rootDir   string
	debugMode bool
	profile   profiling.Options
)

// Hooks set up by startProfilingAndLogging.
var (
	loggingCleanup func()
	profSession    *profiling.Session
)

// NewRootCmd creates the root command for the notesync CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notesync",
		Short: "Keep a notes directory and its chunk store in sync",
		Long: `notesync keeps a store of note chunks in line with a directory of
markdown notes. A resync re-chunks only the notes whose chunk count
changed; watch mode and the MCP server keep the store current as notes
are edited.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("notesync version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Notes directory whose store is used")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.notesync/logs/")
	cmd.PersistentFlags().StringVar(&profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newResyncCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging configures the default logger and starts
// profiling if requested.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	if debugMode {
		slog.Info("Debug logging enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("version", version.Version))
	}

	if profile.Enabled() {
		profSession, err = profiling.Start(profile)
		if err != nil {
			return err
		}
	}
	return nil
}

// stopProfilingAndLogging flushes profiles and closes the log file.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profSession != nil {
		err = profSession.Stop()
		profSession = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command and prints any error with its hint.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		// Post-run hooks are skipped when a command fails.
		_ = stopProfilingAndLogging(nil, nil)
		printError(os.Stderr, err)
	}
	return err
}

func printError(w io.Writer, err error) {
	_, _ = fmt.Fprint(w, nserrors.FormatForCLI(err))
}
