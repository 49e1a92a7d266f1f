// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeranaias/council-tui/internal/ui/chat"
	"github.com/jeranaias/council-tui/internal/ui/styles"
	"github.com/jeranaias/council-tui/internal/watch"
)

func (a *app) viewCommand() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "view FILE",
		Short: "Show a conversation JSON file read-only",
		Long: `Open a saved conversation in the council TUI without a backend.
Sending is disabled. With --watch the view reloads whenever the file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := RequiresTTY("view"); err != nil {
				return err
			}

			path := args[0]
			conv, err := watch.Load(path)
			if err != nil {
				return err
			}

			m := chat.New(styles.NewTheme(), chat.Options{
				Conversation: conv,
				Sink:         a.sink(),
				GlamourStyle: a.cfg.UI.GlamourStyle,
				WordWrap:     a.cfg.UI.WordWrap,
				ShowWelcome:  a.cfg.UI.ShowWelcome,
				Source:       path,
				Logger:       a.log,
			})
			defer m.Shutdown()

			if follow {
				w, err := watch.New(path, watch.DefaultDebounce, m.Publish, a.log)
				if err != nil {
					return err
				}
				if err := w.Start(); err != nil {
					w.Close()
					return err
				}
				defer w.Close()
			}

			return a.runProgram(m)
		},
	}

	cmd.Flags().BoolVarP(&follow, "watch", "w", false, "reload when the file changes")
	return cmd
}
