// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-reveal/internal/config"
	"github.com/jeranaias/rigrun-reveal/internal/storage"
	"github.com/jeranaias/rigrun-reveal/internal/transcript"
)

var importTitle string

var importCmd = &cobra.Command{
	Use:   "import <transcript.json>",
	Short: "Store a transcript in history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer closeLog()

		msgs, err := transcript.Load(args[0])
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return fmt.Errorf("%s: no messages", args[0])
		}

		store, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.Save(cmd.Context(), &storage.Conversation{Title: importTitle, Messages: msgs})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d messages as %s\n", len(msgs), id)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored conversations",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer closeLog()

		store, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		metas, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(storage.FormatList(metas), "\n"))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <conversation-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a stored conversation",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer closeLog()

		store, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := store.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importTitle, "title", "", "conversation title (default: first question)")
}

// loadStored opens the store and loads the conversation ref names.
func loadStored(ctx context.Context, cfg *config.Config, logger *slog.Logger, ref string) (*storage.Conversation, error) {
	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	id, err := store.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return store.Load(ctx, id)
}
