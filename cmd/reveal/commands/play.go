// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/ui/chat"
)

var playPrompt string

var playCmd = &cobra.Command{
	Use:   "play <answer.md|->",
	Short: "Type out a single answer",
	Long: `Type out a Markdown answer in the interactive viewer.

Examples:
  reveal play answer.md
  reveal play answer.md --prompt "How do I read a file in Go?"
  cat answer.md | reveal play -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readAnswer(args[0])
		if err != nil {
			return err
		}
		cfg, logger, closeLog, err := setup(cmd, true)
		if err != nil {
			return err
		}
		defer closeLog()

		p := newPanel(cfg, logger)
		defer p.Close()

		if playPrompt != "" {
			if err := p.LoadHistory([]*model.Message{model.NewUserMessage(playPrompt)}); err != nil {
				return err
			}
		}

		_, err = runView(p, chat.Options{
			Renderer: newRenderer(cfg),
			Pending:  []*model.Message{model.NewAssistantMessage(content)},
			Title:    titleFor(args[0]),
			Logger:   logger,
		})
		return err
	},
}

func init() {
	playCmd.Flags().StringVarP(&playPrompt, "prompt", "p", "", "show this question above the answer")
}
