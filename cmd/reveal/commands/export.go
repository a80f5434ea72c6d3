// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-reveal/internal/config"
	"github.com/jeranaias/rigrun-reveal/internal/export"
	"github.com/jeranaias/rigrun-reveal/internal/storage"
	"github.com/jeranaias/rigrun-reveal/internal/transcript"
)

var (
	exportFormat     string
	exportDir        string
	exportNoMetadata bool
)

var exportCmd = &cobra.Command{
	Use:   "export <conversation-id|transcript.json>",
	Short: "Export a conversation to Markdown, HTML or JSON",
	Long: `Export a stored conversation or a transcript file.

Formats: ` + strings.Join(export.Formats, ", ") + `

Examples:
  reveal export conv_3f2a --format html
  reveal export chat.json --format md --dir ~/notes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer closeLog()

		conv, err := loadConversation(cmd.Context(), cfg, logger, args[0])
		if err != nil {
			return err
		}

		opts := export.DefaultOptions()
		opts.OutputDir = exportDir
		opts.IncludeMetadata = !exportNoMetadata
		opts.HighlightStyle = cfg.Render.HighlightStyle
		if cfg.Render.Theme == "light" {
			opts.Theme = "light"
		}

		exp, err := export.ForFormat(exportFormat, opts)
		if err != nil {
			return err
		}
		path, err := export.ExportToFile(conv, exp, opts)
		if err != nil {
			return err
		}
		logger.Info("conversation exported", "path", path, "format", exportFormat)
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "output format: "+strings.Join(export.Formats, ", "))
	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", ".", "output directory")
	exportCmd.Flags().BoolVar(&exportNoMetadata, "no-metadata", false, "omit the title block")
}

// loadConversation reads ref as a transcript file if it exists, otherwise
// as a stored conversation. A transcript is titled after its file name.
func loadConversation(ctx context.Context, cfg *config.Config, logger *slog.Logger, ref string) (*storage.Conversation, error) {
	info, err := os.Stat(ref)
	if err != nil || info.IsDir() {
		return loadStored(ctx, cfg, logger, ref)
	}
	msgs, err := transcript.Load(ref)
	if err != nil {
		return nil, err
	}
	return &storage.Conversation{
		Title:     strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref)),
		CreatedAt: info.ModTime(),
		UpdatedAt: info.ModTime(),
		Messages:  msgs,
	}, nil
}
