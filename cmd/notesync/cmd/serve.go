package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/notesync/internal/logging"
	"github.com/Aman-CERP/notesync/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var (
		transport  string
		skipResync bool
	)

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve the store to AI clients over MCP",
		Long: `Start a Model Context Protocol server over stdio exposing the tools
resync, update_note, remove_note, search_notes and index_status.

stdout carries JSON-RPC only; logs go to ~/.notesync/logs/.`,
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

			// stdout belongs to the protocol from here on.
			level := env.cfg.Logging.Level
			if debugMode {
				level = "debug"
			}
			if loggingCleanup != nil {
				loggingCleanup()
			}
			loggingCleanup, err = logging.SetupDefault(logging.ServerConfig(level))
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(env.reconciler, env.table, env.scanner, env.root)
			if err != nil {
				return err
			}
			server.SetEmbedder(env.embedder.ModelName())

			if !skipResync {
				server.ResyncInBackground(ctx)
			}

			slog.Info("serve_started", slog.String("root", env.root), slog.String("transport", transport))
			return server.Serve(ctx, transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport: stdio")
	cmd.Flags().BoolVar(&skipResync, "no-resync", false, "Skip the startup resync")

	return cmd
}
