package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/notesync/internal/ui"
)

func newResyncCmd() *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "resync [dir]",
		Short: "Bring the store in line with the notes directory",
		Long: `Scan the notes directory, compare each note's chunk count with the
store and replace the records of every note whose count changed.

Notes edited without changing their chunk count are not detected; use
'notesync update' or 'notesync watch' for those.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dir := rootDir
			if len(args) > 0 {
				dir = args[0]
			}

			env, err := openEnvironment(dir, true)
			if err != nil {
				return err
			}
			defer func() { _ = env.Close() }()

			renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
				ui.WithForcePlain(noTUI),
				ui.WithRootDir(env.root)))
			_, err = renderRun(ctx, env.reconciler.Resync(ctx, env.root), renderer)
			return err
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI mode, use plain text output")

	return cmd
}
