package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	nserrors "github.com/Aman-CERP/notesync/internal/errors"
	"github.com/Aman-CERP/notesync/internal/output"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <file>",
		Short: "Replace the stored records of one note",
		Long: `Re-read a note and replace its records. A note that no longer exists
has its records removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(rootDir, true)
			if err != nil {
				return err
			}
			defer func() { _ = env.Close() }()

			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve path: %w", err)
			}

			out := output.New(cmd.OutOrStdout())
			content, err := env.scanner.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				if err := env.reconciler.RemovePath(cmd.Context(), path); err != nil {
					return err
				}
				out.Warningf("Note %s no longer exists; its records were removed", path)
				return nil
			}
			if err != nil {
				return err
			}

			if err := env.reconciler.UpdateFile(cmd.Context(), path, content); err != nil {
				return err
			}
			out.Successf("Updated %s", path)
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <dir>",
		Short: "Insert the records of every note under a directory",
		Long: `Chunk and insert every note under dir without comparing against the
store. Adding notes that are already stored duplicates their records;
use 'notesync resync' to reconcile instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTreeCommand(cmd, args[0], true)
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <dir>",
		Short: "Delete the records of every note under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTreeCommand(cmd, args[0], false)
		},
	}
}

func runTreeCommand(cmd *cobra.Command, dir string, add bool) error {
	env, err := openEnvironment(rootDir, true)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	abs, err := resolveDir(dir)
	if err != nil {
		return err
	}
	tree, err := env.scanner.Tree(cmd.Context(), abs)
	if err != nil {
		return nserrors.New(nserrors.ErrCodeFileNotFound, "failed to scan directory", err).
			WithDetail("path", abs)
	}

	out := output.New(cmd.OutOrStdout())
	if add {
		if err := env.reconciler.AddTree(cmd.Context(), tree); err != nil {
			return err
		}
		out.Successf("Added %d notes from %s", tree.Count(), abs)
		return nil
	}
	if err := env.reconciler.RemoveTree(cmd.Context(), tree); err != nil {
		return err
	}
	out.Successf("Removed %d notes under %s", tree.Count(), abs)
	return nil
}
