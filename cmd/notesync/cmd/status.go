package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/notesync/internal/config"
	nserrors "github.com/Aman-CERP/notesync/internal/errors"
	"github.com/Aman-CERP/notesync/internal/store"
	"github.com/Aman-CERP/notesync/internal/ui"
	"github.com/Aman-CERP/notesync/pkg/version"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the store's size and writer state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := collectStatus(cmd)
			if err != nil {
				return err
			}
			r := ui.NewStatusRenderer(cmd.OutOrStdout(), !ui.IsTTY(cmd.OutOrStdout()) || ui.DetectNoColor())
			if jsonOutput {
				return r.RenderJSON(info)
			}
			return r.Render(info)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}

func collectStatus(cmd *cobra.Command) (ui.StatusInfo, error) {
	root, err := resolveDir(rootDir)
	if err != nil {
		return ui.StatusInfo{}, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return ui.StatusInfo{}, err
	}

	info := ui.StatusInfo{
		RootDir: root,
		DataDir: cfg.DataDir(root),
		DBPath:  cfg.DBPath(root),
		Version: version.Version,
	}

	lock := store.NewLock(info.DataDir)
	if err := lock.TryLock(); err != nil {
		var ne *nserrors.NotesyncError
		if !errors.As(err, &ne) || ne.Code != nserrors.ErrCodeStoreLocked {
			return ui.StatusInfo{}, err
		}
		info.Locked = true
	} else {
		_ = lock.Unlock()
	}

	stat, err := os.Stat(info.DBPath)
	if err != nil {
		// No store yet.
		return info, nil
	}
	info.DBSize = stat.Size()

	env, err := openEnvironment(root, false)
	if err != nil {
		return ui.StatusInfo{}, err
	}
	defer func() { _ = env.Close() }()

	stats, err := env.table.Stats(cmd.Context())
	if err != nil {
		return ui.StatusInfo{}, err
	}
	info.Records = stats.Rows
	info.Notes = stats.Notes
	info.Embedder = env.embedder.ModelName()
	return info, nil
}
