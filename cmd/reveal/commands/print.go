// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jeranaias/rigrun-reveal/internal/config"
	"github.com/jeranaias/rigrun-reveal/internal/format"
	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/ui/render"
	"github.com/jeranaias/rigrun-reveal/internal/ui/styles"
)

var (
	printPlain    bool
	printMarkdown bool
)

var printCmd = &cobra.Command{
	Use:   "print <conversation-id|transcript.json>",
	Short: "Print a conversation without animation",
	Long: `Print a stored conversation or a transcript file.

On a terminal, answers are rendered with glamour. Piped output uses the
plain renderer, or Markdown with --markdown.

Examples:
  reveal print conv_3f2a
  reveal print chat.json --plain > chat.txt
  reveal print chat.json --markdown`,
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
		msgs := conv.Messages
		out := cmd.OutOrStdout()

		switch {
		case printMarkdown:
			return printMessages(out, msgs, func(nodes []format.Node) (string, error) {
				return render.Markdown(nodes), nil
			})
		case !printPlain && isTerminal(out):
			return printGlamour(out, cfg, msgs)
		default:
			r := render.New(styles.Plain(), render.Options{Width: cfg.Render.Width})
			return printMessages(out, msgs, func(nodes []format.Node) (string, error) {
				return r.Render(nodes), nil
			})
		}
	},
}

func init() {
	printCmd.Flags().BoolVar(&printPlain, "plain", false, "plain text without colors")
	printCmd.Flags().BoolVar(&printMarkdown, "markdown", false, "normalized Markdown")
}

// printMessages writes each visible message under a role heading, rendering
// its formatted content with draw.
func printMessages(w io.Writer, msgs []*model.Message, draw func([]format.Node) (string, error)) error {
	first := true
	for _, msg := range msgs {
		nodes := format.Format(msg.Content, msg.Content)
		if len(nodes) == 0 {
			continue
		}
		body, err := draw(nodes)
		if err != nil {
			return err
		}
		if !first {
			fmt.Fprintln(w)
		}
		first = false
		fmt.Fprintf(w, "%s:\n%s\n", msg.Role.DisplayName(), strings.TrimRight(body, "\n"))
	}
	if first {
		return errors.New("conversation has no messages")
	}
	return nil
}

// printGlamour renders messages through glamour at the terminal width.
func printGlamour(w io.Writer, cfg *config.Config, msgs []*model.Message) error {
	width := cfg.Render.Width
	if width <= 0 {
		width = terminalWidth(w)
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch cfg.Render.Theme {
	case styles.ModeDark:
		opts = append(opts, glamour.WithStandardStyle("dark"))
	case styles.ModeLight:
		opts = append(opts, glamour.WithStandardStyle("light"))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	return printMessages(w, msgs, func(nodes []format.Node) (string, error) {
		return tr.Render(render.Markdown(nodes))
	})
}

// =============================================================================
// TERMINAL HELPERS
// =============================================================================

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return render.DefaultWidth
}
