package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/notesync/internal/index"
	"github.com/Aman-CERP/notesync/internal/output"
	"github.com/Aman-CERP/notesync/internal/ui"
	"github.com/Aman-CERP/notesync/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var skipResync bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Resync once, then keep the store current as notes change",
		Long: `Run a resync, then watch the notes directory and update the store as
notes are created, edited, renamed or deleted. Bursts of events for the
same note are coalesced. Stop with Ctrl+C.`,
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

			if !skipResync {
				renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
					ui.WithForcePlain(true),
					ui.WithRootDir(env.root)))
				if _, err := renderRun(ctx, env.reconciler.Resync(ctx, env.root), renderer); err != nil {
					return err
				}
			}

			return runWatch(ctx, cmd, env)
		},
	}

	cmd.Flags().BoolVar(&skipResync, "no-resync", false, "Skip the initial resync")

	return cmd
}

// runWatch applies file events to the store until ctx is canceled.
func runWatch(ctx context.Context, cmd *cobra.Command, env *environment) error {
	w, err := watcher.New(watcher.Options{
		DebounceWindow: env.cfg.DebounceDuration(),
		Accept:         env.scanner.Accepts,
		SkipDir:        env.scanner.SkipsDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	startErr := make(chan error, 1)
	go func() {
		startErr <- w.Start(ctx, env.root)
	}()

	out := output.New(cmd.OutOrStdout())
	out.Successf("Watching %s (Ctrl+C to stop)", env.root)

	coordinator := index.NewCoordinator(env.reconciler, env.scanner)
	events, errs := w.Events(), w.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-startErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watcher stopped: %w", err)
			}
			return nil

		case batch, ok := <-events:
			if !ok {
				return nil
			}
			applied := coordinator.HandleEvents(ctx, batch)
			slog.Info("watch_batch",
				slog.Int("events", len(batch)),
				slog.Int("applied", applied))
			for _, ev := range batch {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s\n", ev.Operation, ev.RelPath)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watcher_error", slog.String("error", err.Error()))
		}
	}
}
