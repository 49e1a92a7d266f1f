// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeranaias/council-tui/internal/config"
	"github.com/jeranaias/council-tui/internal/ui/setup"
)

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive first-run setup",
		Long: `Walk through the backend URL, export directory and Markdown style, check
that the backend answers, and write the config file.

Existing settings are used as the starting point. Environment and flag
overrides are not written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := RequiresTTY("init"); err != nil {
				return err
			}

			path, err := a.resolvedConfigPath()
			if err != nil {
				return &ConfigError{Err: err}
			}
			base, err := config.ReadFile(path)
			if err != nil {
				return &ConfigError{Path: path, Err: err}
			}

			return a.runProgram(setup.New(setup.Options{
				Config: base,
				Path:   path,
				Logger: a.log,
			}))
		},
	}
}
