// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-reveal/internal/config"
	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/panel"
	"github.com/jeranaias/rigrun-reveal/internal/registry"
	"github.com/jeranaias/rigrun-reveal/internal/storage"
	"github.com/jeranaias/rigrun-reveal/internal/typing"
	"github.com/jeranaias/rigrun-reveal/internal/ui/chat"
	"github.com/jeranaias/rigrun-reveal/internal/ui/render"
	"github.com/jeranaias/rigrun-reveal/internal/ui/styles"
)

// newPanel builds the orchestrator from the config.
func newPanel(cfg *config.Config, logger *slog.Logger) *panel.Panel {
	return panel.New(panel.Options{
		Registry: registry.Options{
			Typing: typing.Options{
				WPM:       cfg.Typing.WPM,
				ChunkSize: cfg.Typing.ChunkSize,
				Logger:    logger,
			},
			Logger: logger,
		},
		ScrollThreshold: cfg.Scroll.Threshold,
		Logger:          logger,
	})
}

// newRenderer builds a terminal renderer for stdout.
func newRenderer(cfg *config.Config) *render.Renderer {
	return render.New(styles.NewTheme(cfg.Render.Theme), render.Options{
		Width:          cfg.Render.Width,
		HighlightStyle: cfg.Render.HighlightStyle,
		LineNumbers:    cfg.Render.LineNumbers,
	})
}

// runView runs the full-screen view until the user quits and returns the
// conversation as it ended.
func runView(p *panel.Panel, opts chat.Options) ([]*model.Message, error) {
	m := chat.New(p, opts)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := prog.Run(); err != nil {
		return nil, fmt.Errorf("run view: %w", err)
	}
	// A message still typing is saved in full.
	p.Stop()
	return p.Conversation().Messages(), nil
}

// saveConversation stores msgs under id, creating a new entry when id is
// empty, and returns the stored ID.
func saveConversation(ctx context.Context, cfg *config.Config, logger *slog.Logger, id string, msgs []*model.Message) (string, error) {
	if len(msgs) == 0 {
		return "", errors.New("nothing to save")
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.Save(ctx, &storage.Conversation{ID: id, Messages: msgs})
}

// readAnswer reads an answer file, or stdin when path is "-".
func readAnswer(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")
	if strings.TrimSpace(content) == "" {
		return "", errors.New("answer is empty")
	}
	return content, nil
}

// titleFor names a file for the view header.
func titleFor(path string) string {
	if path == "" || path == "-" {
		return ""
	}
	return filepath.Base(path)
}
