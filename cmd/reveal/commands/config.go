// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-reveal/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage reveal configuration.

Subcommands:
  show                   Show the full configuration
  get <key>              Show one value
  set <key> <value>      Set a value and save
  keys                   List settable keys
  path                   Show the config file path`,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configPathCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the full configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(cmd); err != nil {
			return err
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(config.Global())
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a configuration value",
	Long: `Show a configuration value.

Examples:
  reveal config get typing.wpm
  reveal config get render.highlight_style`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(cmd); err != nil {
			return err
		}
		value, err := config.Global().Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%v\n", value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save the config file.

Examples:
  reveal config set typing.wpm 900
  reveal config set render.theme light
  reveal config set render.line_numbers true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(cmd); err != nil {
			return err
		}
		// Edit a copy so a rejected value leaves the loaded config intact.
		cfg := config.Global().Clone()
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := saveConfig(cfg); err != nil {
			return err
		}
		config.SetGlobal(cfg)
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.Keys(), "\n"))
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			var err error
			if path, err = config.ConfigPathTOML(); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// saveConfig writes cfg to --config, or to the default file.
func saveConfig(cfg *config.Config) error {
	switch {
	case cfgFile == "":
		return config.Save(cfg)
	case strings.HasSuffix(strings.ToLower(cfgFile), ".json"):
		return config.SaveJSON(cfg, cfgFile)
	default:
		return config.SaveTOML(cfg, cfgFile)
	}
}
