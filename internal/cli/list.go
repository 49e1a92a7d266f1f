// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeranaias/council-tui/internal/export"
	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/util"
	"github.com/jeranaias/council-tui/internal/watch"
)

const (
	listIDWidth    = 38
	listDateWidth  = 18
	listCountWidth = 6
)

func (a *app) listCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list [FILE...]",
		Short: "List conversations stored on the backend",
		Long: `List conversations stored on the backend, or summarize conversation JSON
files when FILE arguments are given.`,
		Example: `  council list
  council list ./exports/*.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var list []model.ConversationMeta
			var err error
			if len(args) > 0 {
				list, err = loadMeta(args)
			} else {
				list, err = a.client().ListConversations(cmd.Context())
			}
			if err != nil {
				if asJSON {
					NewJSONErrorResponse("list", err).Write(out)
				}
				return err
			}

			if asJSON {
				return NewJSONResponse("list", list).Write(out)
			}

			if len(list) == 0 {
				fmt.Fprintln(out, DimStyle.Render("No conversations."))
				return nil
			}

			fmt.Fprintln(out, TitleStyle.Render("Conversations"))
			fmt.Fprintln(out, RenderLabel("ID", listIDWidth)+RenderLabel("CREATED", listDateWidth)+
				RenderLabel("MSGS", listCountWidth)+"TITLE")
			fmt.Fprintln(out, RenderSeparator(listIDWidth+listDateWidth+listCountWidth+24))
			for _, c := range list {
				title := c.Title
				if title == "" {
					title = export.UntitledTitle
				}
				created := ""
				if !c.CreatedAt.IsZero() {
					created = c.CreatedAt.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintln(out,
					RenderLabel(util.TruncateWidth(c.ID, listIDWidth-1), listIDWidth)+
						RenderLabel(created, listDateWidth)+
						RenderLabel(strconv.Itoa(c.MessageCount), listCountWidth)+
						ValueStyle.Render(title))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// loadMeta summarizes conversation files in argument order.
func loadMeta(paths []string) ([]model.ConversationMeta, error) {
	list := make([]model.ConversationMeta, 0, len(paths))
	for _, p := range paths {
		conv, err := watch.Load(p)
		if err != nil {
			return nil, err
		}
		list = append(list, conv.Meta())
	}
	return list, nil
}
