// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/transcript"
	"github.com/jeranaias/rigrun-reveal/internal/ui/chat"
)

var (
	tuiConversation string
	tuiSave         bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui [transcript.json]",
	Short: "Open the interactive viewer",
	Long: `Open the interactive viewer.

With a transcript file, reveal watches it and types out each new assistant
message as it is written. The file holds a JSON array of messages or an
object with a "messages" array; each message has a role, content and
optionally an id and timestamp.

Examples:
  reveal tui chat.json
  reveal tui --conversation conv_3f2a
  reveal tui chat.json --save`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := setup(cmd, true)
		if err != nil {
			return err
		}
		defer closeLog()

		p := newPanel(cfg, logger)
		defer p.Close()

		opts := chat.Options{Renderer: newRenderer(cfg), Logger: logger}

		if tuiConversation != "" {
			conv, err := loadStored(cmd.Context(), cfg, logger, tuiConversation)
			if err != nil {
				return err
			}
			if err := p.LoadHistory(conv.Messages); err != nil {
				return err
			}
			tuiConversation = conv.ID
			opts.Title = conv.Title
		}

		if len(args) == 1 {
			path := args[0]
			msgs, err := transcript.Load(path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := p.LoadHistory(unseen(p.Conversation(), msgs)); err != nil {
				return err
			}

			w, err := transcript.NewWatcher(path, transcript.Options{Logger: logger})
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				w.Close()
				return err
			}
			defer w.Close()
			opts.Transcript = w.Updates()
			if opts.Title == "" {
				opts.Title = titleFor(path)
			}
		}

		msgs, err := runView(p, opts)
		if err != nil {
			return err
		}
		if !tuiSave {
			return nil
		}
		id, err := saveConversation(cmd.Context(), cfg, logger, tuiConversation, msgs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved conversation %s\n", id)
		return nil
	},
}

// unseen returns the messages of msgs that conv does not hold yet.
func unseen(conv *model.Conversation, msgs []*model.Message) []*model.Message {
	var out []*model.Message
	for _, msg := range msgs {
		if _, ok := conv.Find(msg.ID); !ok {
			out = append(out, msg)
		}
	}
	return out
}

func init() {
	tuiCmd.Flags().StringVar(&tuiConversation, "conversation", "", "open a stored conversation (ID or unique prefix)")
	tuiCmd.Flags().BoolVar(&tuiSave, "save", false, "store the conversation in history on exit")
}
