// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strconv"
	"strings"

	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

const (
	// UntitledTitle is used in the transcript header when a conversation has
	// no title.
	UntitledTitle = "Untitled"

	// DateLayout formats the creation date in the transcript header.
	DateLayout = "January 2, 2006 at 3:04 PM"

	separator = "---"
)

// Transcript serializes a conversation to Markdown. It is pure and
// deterministic: the same conversation always yields the same text, and a
// conversation without messages yields "".
func Transcript(conv *model.Conversation) string {
	if conv == nil || len(conv.Messages) == 0 {
		return ""
	}

	var sb strings.Builder

	title := conv.Title
	if title == "" {
		title = UntitledTitle
	}
	sb.WriteString("# " + title + "\n\n")
	sb.WriteString("*Created: " + conv.CreatedAt.Format(DateLayout) + "*\n\n")
	sb.WriteString(separator + "\n\n")

	for _, msg := range conv.Messages {
		switch m := msg.(type) {
		case *model.UserMessage:
			writeUserQuery(&sb, m)
		case *model.AssistantMessage:
			writeDeliberation(&sb, m)
		}
	}

	return sb.String()
}

func writeUserQuery(sb *strings.Builder, msg *model.UserMessage) {
	sb.WriteString("## User Query\n\n")
	sb.WriteString(msg.Content)
	sb.WriteString("\n\n")
}

// writeDeliberation emits only the sections whose data is present; loading
// flags do not matter to the transcript.
func writeDeliberation(sb *strings.Builder, msg *model.AssistantMessage) {
	if msg.Stage1 != nil {
		sb.WriteString("## Stage 1: Individual Responses\n\n")
		for _, r := range msg.Stage1 {
			sb.WriteString("### " + model.DisplayName(r.Model) + "\n\n")
			sb.WriteString(r.Response)
			sb.WriteString("\n\n")
		}
	}

	if msg.Stage2 != nil {
		sb.WriteString("## Stage 2: Peer Rankings\n\n")
		if msg.Metadata.AggregateRankings != nil {
			sb.WriteString("### Aggregate Rankings\n\n")
			for i, agg := range msg.Metadata.AggregateRankings {
				sb.WriteString(strconv.Itoa(i+1) + ". " + model.DisplayName(agg.Model) +
					" (avg rank: " + FormatAverageRank(agg.AverageRank) + ")\n")
			}
			sb.WriteString("\n")
		}
		for _, r := range msg.Stage2 {
			sb.WriteString("### Evaluation by " + model.DisplayName(r.Model) + "\n\n")
			sb.WriteString(r.Ranking)
			sb.WriteString("\n\n")
		}
	}

	if msg.Stage3 != nil {
		sb.WriteString("## Stage 3: Final Council Answer\n\n")
		sb.WriteString("### Chairman: " + model.DisplayName(msg.Stage3.Model) + "\n\n")
		sb.WriteString(msg.Stage3.Response)
		sb.WriteString("\n\n")
	}

	sb.WriteString(separator + "\n\n")
}

// FormatAverageRank renders an average rank with exactly two decimals.
// Rounding is applied to the exact binary value of the float, and exact
// binary ties go to the even digit: 3.456 -> "3.46", 0.125 -> "0.12",
// 2.005 (stored just below 2.005) -> "2.00".
func FormatAverageRank(rank float64) string {
	return strconv.FormatFloat(rank, 'f', 2, 64)
}
