// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeranaias/council-tui/internal/council"
	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/ui/chat"
	"github.com/jeranaias/council-tui/internal/ui/styles"
)

func (a *app) chatCommand() *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive council deliberation",
		Long: `Open the council TUI bound to the backend.

Enter sends the question, Alt+Enter inserts a line break, Tab cycles the
per-model tabs, Ctrl+S exports a Markdown transcript and Ctrl+N starts a
new conversation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := RequiresTTY("chat"); err != nil {
				return err
			}

			client := a.client()

			var conv *model.Conversation
			if conversationID != "" {
				var err error
				conv, err = client.GetConversation(cmd.Context(), conversationID)
				if err != nil {
					return err
				}
			}

			session := council.NewSession(client, conv, a.log)
			m := chat.New(styles.NewTheme(), chat.Options{
				Session:      session,
				Sink:         a.sink(),
				GlamourStyle: a.cfg.UI.GlamourStyle,
				WordWrap:     a.cfg.UI.WordWrap,
				ShowWelcome:  a.cfg.UI.ShowWelcome,
				Source:       client.BaseURL(),
				Logger:       a.log,
			})
			defer m.Shutdown()

			a.log.Info().Str("conversation", session.Snapshot().ID).Msg("chat started")
			return a.runProgram(m)
		},
	}

	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "resume a stored conversation by ID")
	return cmd
}
