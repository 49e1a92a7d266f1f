// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/council-tui/internal/export"
	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/watch"
)

type exportOptions struct {
	conversationID string
	outDir         string
	asJSON         bool
	asHTML         bool
	stages         []string
	open           bool
}

func (a *app) exportCommand() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write a conversation transcript",
		Long: `Export a conversation as a Markdown transcript (JSON with --json, a
standalone page with --html).

The source is either a conversation JSON file or a conversation stored on the
backend (--conversation). The file name is derived from the title. --stage
keeps only the named stages and may be repeated.`,
		Example: `  council export conv.json
  council export conv.json --html --stage 3
  council export --conversation 6f1c2a --out ./transcripts --open`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (opts.conversationID != "") {
				return &UsageError{
					Reason:  "specify exactly one of FILE or --conversation",
					Example: "council export conv.json --out ./transcripts",
				}
			}
			if opts.asJSON && opts.asHTML {
				return &UsageError{
					Reason:  "--json and --html cannot be combined",
					Example: "council export conv.json --html",
				}
			}

			stages := make([]model.Stage, 0, len(opts.stages))
			for _, raw := range opts.stages {
				s, err := model.ParseStage(raw)
				if err != nil {
					return &UsageError{Reason: err.Error(), Example: "council export conv.json --stage 1 --stage 3"}
				}
				stages = append(stages, s)
			}

			var conv *model.Conversation
			var err error
			if len(args) == 1 {
				conv, err = watch.Load(args[0])
			} else {
				conv, err = a.client().GetConversation(cmd.Context(), opts.conversationID)
			}
			if err != nil {
				return err
			}

			dir := opts.outDir
			if dir == "" {
				dir = a.cfg.Export.Dir
			}
			open := a.cfg.Export.OpenAfterExport
			if cmd.Flags().Changed("open") {
				open = opts.open
			}

			conv = export.FilterStages(conv, stages...)

			var artifact export.Artifact
			switch {
			case opts.asJSON:
				artifact, err = export.NewJSONArtifact(conv)
			case opts.asHTML:
				artifact, err = export.NewHTMLArtifact(conv)
			default:
				artifact = export.NewArtifact(conv)
			}
			if err != nil {
				return err
			}

			path, err := export.NewFileSink(dir, open).Deliver(artifact)
			if err != nil {
				if path == "" {
					return err
				}
				// Written, but the opener failed
				a.log.Warn().Err(err).Str("path", path).Msg("export opener failed")
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			a.log.Info().Str("conversation", conv.ID).Str("path", path).Msg("exported")
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", SuccessStyle.Render("[OK]"), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.conversationID, "conversation", "c", "", "export a stored conversation by ID")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "output directory (default: export.dir or the working directory)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "write the conversation JSON instead of Markdown")
	cmd.Flags().BoolVar(&opts.asHTML, "html", false, "write a standalone HTML page instead of Markdown")
	cmd.Flags().StringSliceVar(&opts.stages, "stage", nil, "keep only these stages (1, 2, 3; repeatable)")
	cmd.Flags().BoolVar(&opts.open, "open", false, "open the written file")
	return cmd
}
