// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands implements the reveal command line.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-reveal/internal/config"
	"github.com/jeranaias/rigrun-reveal/internal/storage"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "reveal",
	Short: "reveal - terminal renderer for assistant answers",
	Long: `reveal renders assistant answers in the terminal.

Answers are typed out word by word, formatted as they arrive, and the view
follows the newest text until you scroll away.

  reveal tui [transcript.json]   Interactive viewer, follows a transcript file
  reveal play <answer.md>        Type out a single answer
  reveal print <id|file>         Print a conversation without animation
  reveal import <file>           Store a transcript in history
  reveal export <id|file>        Export to Markdown, HTML or JSON
  reveal list                    List stored conversations
  reveal config                  Manage configuration`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.reveal/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute(ver string) error {
	version = ver
	return rootCmd.Execute()
}

var version string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reveal %s\n", version)
	},
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig reads --config or the default config file. A default config
// that fails to parse is reported on stderr and replaced by the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.LoadFromPath(cfgFile)
		if err != nil {
			return nil, err
		}
		config.SetGlobal(cfg)
		return cfg, nil
	}
	cfg, err := config.Load()
	if cfg == nil {
		return nil, err
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v (using defaults)\n", err)
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// newLogger opens the configured log file. Without one, logs are dropped,
// except that --verbose sends them to stderr when the terminal is free.
func newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, func(), error) {
	level := cfg.Log.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Log.File == "" {
		if verbose && stderr != nil {
			return slog.New(slog.NewTextHandler(stderr, opts)), func() {}, nil
		}
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewJSONHandler(f, opts)), func() { f.Close() }, nil
}

// setup loads the config and logger for a command.
func setup(cmd *cobra.Command, interactive bool) (*config.Config, *slog.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	var stderr io.Writer = cmd.ErrOrStderr()
	if interactive {
		stderr = nil
	}
	logger, closeLog, err := newLogger(cfg, stderr)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closeLog, nil
}

// openStore opens the history database named by the config.
func openStore(cfg *config.Config, logger *slog.Logger) (*storage.Store, error) {
	path := cfg.Storage.DBPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	if path == "" {
		return nil, errors.New("no history database path configured")
	}
	return storage.OpenWithLogger(path, logger)
}
