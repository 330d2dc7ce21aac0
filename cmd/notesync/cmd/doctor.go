package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	nserrors "github.com/Aman-CERP/notesync/internal/errors"
	"github.com/Aman-CERP/notesync/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the notes directory and its store for problems",
		Long: `Run diagnostics on the notes directory.

Checks:
  - Configuration validity
  - Notes found by a resync
  - Write permissions for the data directory
  - Disk space (50MB minimum)
  - File descriptor limit for watch mode (1024 minimum)
  - Stored records that no longer parse
  - Whether another process holds the store lock

Exits with an error when a required check fails.`,
		Example: `  # Run diagnostics
  notesync doctor

  # JSON output for scripting
  notesync doctor --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveDir(rootDir)
			if err != nil {
				return err
			}

			checker := preflight.New(
				preflight.WithVerbose(verbose),
				preflight.WithOutput(cmd.OutOrStdout()),
			)
			results := checker.RunAll(cmd.Context(), root)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(checker.Report(results)); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return nserrors.New(nserrors.ErrCodeInternal, "system check failed", nil).
					WithSuggestion("fix the errors listed above and run 'notesync doctor' again")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
