// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/council-tui/internal/config"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprint(cmd.OutOrStdout(), a.cfg.String())
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := a.resolvedConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List configuration keys",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				for _, k := range config.GetAllKeys() {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
			},
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print one effective configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := a.cfg.Get(args[0])
				if err != nil {
					return &UsageError{Reason: err.Error(), Example: "council config get ui.glamour_style"}
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Write one value to the configuration file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.resolvedConfigPath()
				if err != nil {
					return &ConfigError{Err: err}
				}

				// Start from the file alone so flag and env overrides are not persisted
				cfg, err := config.ReadFile(path)
				if err != nil {
					return &ConfigError{Path: path, Err: err}
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return &UsageError{Reason: err.Error(), Example: "council config set ui.word_wrap 80"}
				}
				cfg.SetDefaults()
				if err := cfg.Validate(); err != nil {
					return &ConfigError{Path: path, Err: err}
				}
				if err := config.SaveTOML(cfg, path); err != nil {
					return &ConfigError{Path: path, Err: err}
				}

				a.log.Info().Str("key", args[0]).Str("path", path).Msg("config updated")
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", SuccessStyle.Render("[OK]"), args[0], args[1])
				return nil
			},
		},
	)
	return cmd
}
