package cmd

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	nserrors "github.com/Aman-CERP/notesync/internal/errors"
	"github.com/Aman-CERP/notesync/internal/output"
)

func newSearchCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find note chunks by similarity",
		Example: `  notesync search "raised bed tomatoes"
  notesync search budget review --limit 3 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return nserrors.ValidationError("--limit must be positive", nil)
			}
			if format != "text" && format != "json" {
				return nserrors.ValidationError("--format must be text or json", nil).
					WithDetail("format", format)
			}

			env, err := openReadOnly()
			if err != nil {
				return err
			}
			defer func() { _ = env.Close() }()

			query := strings.Join(args, " ")
			slog.Info("search_started", slog.String("query", query), slog.Int("limit", limit))

			results, err := env.table.Search(cmd.Context(), query, limit)
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			output.New(cmd.OutOrStdout()).SearchResults(query, results, env.root)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

// openReadOnly opens the store of --root without the writer lock. It fails
// when no store exists yet instead of creating one.
func openReadOnly() (*environment, error) {
	root, err := resolveDir(rootDir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(storePath(root)); err != nil {
		return nil, nserrors.New(nserrors.ErrCodeFileNotFound, "no note store found", err).
			WithDetail("root", root).
			WithSuggestion("run 'notesync resync' first")
	}
	return openEnvironment(root, false)
}
