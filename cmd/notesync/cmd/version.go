package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/notesync/internal/config"
	"github.com/Aman-CERP/notesync/internal/embed"
	"github.com/Aman-CERP/notesync/internal/store"
	"github.com/Aman-CERP/notesync/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var jsonOutput bool
	var shortOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the build version along with the store schema and the embedder
configured for --root. Stores written with a different schema or embedder
need a fresh resync.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if shortOutput {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Version)
				return err
			}

			info := version.Get(currentFormats())
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")

	return cmd
}

// currentFormats describes the store this build would write for --root,
// falling back to defaults when the directory has no usable config.
func currentFormats() version.Formats {
	cfg := config.NewConfig()
	if root, err := resolveDir(rootDir); err == nil {
		if loaded, err := config.Load(root); err == nil {
			cfg = loaded
		}
	}
	return version.Formats{
		StoreSchema: store.SchemaVersion,
		Embedder:    embed.NewHashEmbedder(cfg.Embeddings.Dimensions).ModelName(),
	}
}
