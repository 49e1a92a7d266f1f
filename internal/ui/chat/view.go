// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/council-tui/internal/export"
	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/stage"
	"github.com/jeranaias/council-tui/internal/ui/components"
	"github.com/jeranaias/council-tui/internal/ui/styles"
	"github.com/jeranaias/council-tui/internal/util"
)

// Fixed chrome heights used for viewport sizing.
const (
	headerHeight = 2 // title line + bottom border
	statusHeight = 1
	inputChrome  = 2 // input border
)

const brand = "LLM Council"

// =============================================================================
// SCREEN
// =============================================================================

func (m Model) renderScreen() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	parts := []string{m.renderHeader(), m.viewport.View()}
	if !m.readOnly {
		parts = append(parts, m.renderInput())
	}
	parts = append(parts, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := "New Conversation"
	var created string
	if c := m.conversation; c != nil {
		if c.Title != "" {
			title = c.Title
		}
		created = formatTimestamp(c.CreatedAt, time.Now())
	}

	content := m.theme.HeaderTitle.Render(brand) + " " +
		m.theme.ModelName.Render(util.TruncateWidth(title, max(m.width/2, 10)))

	var sub []string
	if created != "" {
		sub = append(sub, created)
	}
	if m.source != "" {
		sub = append(sub, m.source)
	}
	if m.readOnly {
		sub = append(sub, "read-only")
	}
	if len(sub) > 0 {
		content += "  " + m.theme.HeaderSubtitle.Render(strings.Join(sub, " | "))
	}

	return m.theme.Header.Width(m.width).Render(content)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(calculateContentWidth(m.width, 2)).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.lastError != nil:
		summary := components.Diagnose(m.lastError).Summary()
		left = lipgloss.NewStyle().Foreground(styles.Rose).
			Render(styles.StatusIndicators.Error + " " + util.TruncateWidth(summary, max(m.width-16, 10)))
	case m.status != "":
		left = m.theme.Success.Render(styles.StatusIndicators.Info + " " + m.status)
	default:
		left = m.renderHelp()
	}

	var right string
	if m.busy() {
		right = m.theme.StageLoading.Render(m.spinner.View() + " deliberating")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	bindings := m.keyMap.ShortHelp()
	if m.readOnly {
		bindings = m.keyMap.ReadOnlyHelp()
	}

	var parts []string
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, m.theme.StatusKey.Render(h.Key)+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// CONVERSATION
// =============================================================================

// renderConversation renders every message of the current snapshot.
func (m Model) renderConversation() string {
	conv := m.conversation
	if conv == nil || conv.IsEmpty() {
		if m.showWelcome {
			return m.renderWelcome()
		}
		return ""
	}

	var blocks []string
	for _, msg := range conv.Messages {
		switch v := msg.(type) {
		case *model.UserMessage:
			blocks = append(blocks, m.renderUser(v))
		case *model.AssistantMessage:
			blocks = append(blocks, m.renderAssistant(v))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderWelcome() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	lines := []string{
		m.theme.WelcomeTitle.Render("Welcome to " + brand),
		"",
		"Ask a question and several models answer it independently,",
		"rank each other's answers anonymously, and a chairman model",
		"synthesizes the final response.",
	}
	if m.readOnly {
		lines = append(lines, "", "Waiting for a conversation snapshot...")
	}
	return m.theme.Welcome.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderUser(msg *model.UserMessage) string {
	label := m.theme.UserLabel.Render(model.RoleUser.DisplayName())
	body := m.theme.UserBubble.Width(m.contentWidth() + 2).Render(m.renderer.render(msg.Content))
	return label + "\n" + body
}

// renderAssistant renders one deliberation. Sections follow the projection:
// loading stages show a spinner and label, ready stages show their data.
func (m Model) renderAssistant(msg *model.AssistantMessage) string {
	out := []string{m.theme.AssistantLabel.Render(model.RoleAssistant.DisplayName())}

	for _, v := range stage.Project(msg).Visible() {
		title, box := m.theme.StageStyles(v.Stage)

		if v.Status == stage.Loading {
			out = append(out, m.theme.StageLoading.Render(m.spinner.View()+" "+v.Label))
			continue
		}

		var heading, body string
		switch v.Stage {
		case model.Stage1:
			heading = "Stage 1: Individual Responses"
			body = m.renderStage1(msg)
		case model.Stage2:
			heading = "Stage 2: Peer Rankings"
			body = m.renderStage2(msg)
		case model.Stage3:
			heading = "Stage 3: Final Council Answer"
			body = m.renderStage3(msg)
		}

		section := title.Render(styles.StatusIndicators.Done+" "+heading) + "\n" + body
		out = append(out, box.Width(m.contentWidth()+2).Render(section))
	}

	return strings.Join(out, "\n")
}

// =============================================================================
// STAGES
// =============================================================================

func (m Model) renderStage1(msg *model.AssistantMessage) string {
	if len(msg.Stage1) == 0 {
		return m.theme.Muted.Render("No responses.")
	}

	names := make([]string, len(msg.Stage1))
	for i, r := range msg.Stage1 {
		names[i] = r.Model
	}
	active := clampTab(m.activeTab, len(names))
	r := msg.Stage1[active]

	return m.renderTabs(names, active) + "\n\n" +
		m.theme.Muted.Render("Model: "+r.Model) + "\n" +
		m.renderer.render(r.Response)
}

func (m Model) renderStage2(msg *model.AssistantMessage) string {
	var sb strings.Builder
	labels := msg.Metadata.LabelToModel

	sb.WriteString(m.theme.Muted.Render(wrapText(
		"Each model evaluated all responses anonymized as Response A, B, C... "+
			"Model names are shown in bold for readability.", m.contentWidth())))

	if len(msg.Stage2) > 0 {
		names := make([]string, len(msg.Stage2))
		for i, r := range msg.Stage2 {
			names[i] = r.Model
		}
		active := clampTab(m.activeTab, len(names))
		r := msg.Stage2[active]

		sb.WriteString("\n\n" + m.renderTabs(names, active) + "\n\n")
		sb.WriteString(m.renderer.render(stage.Deanonymize(r.Ranking, labels)))

		if len(r.ParsedRanking) > 0 {
			sb.WriteString("\n\n" + m.theme.ModelName.Render("Extracted Ranking:") + "\n")
			for i, label := range r.ParsedRanking {
				name := label
				if id, ok := labels[label]; ok {
					name = model.DisplayName(id)
				}
				fmt.Fprintf(&sb, "%d. %s\n", i+1, name)
			}
		}
	}

	if aggs := msg.Metadata.AggregateRankings; len(aggs) > 0 {
		sb.WriteString("\n\n" + m.theme.ModelName.Render("Aggregate Rankings") + "\n")
		sb.WriteString(m.theme.Muted.Render("Combined results across all peer evaluations (lower is better)") + "\n")
		for i, agg := range aggs {
			line := fmt.Sprintf("#%d  %s  avg %s", i+1, model.DisplayName(agg.Model),
				export.FormatAverageRank(agg.AverageRank))
			if agg.RankingsCount > 0 {
				line += fmt.Sprintf("  (%d votes)", agg.RankingsCount)
			}
			sb.WriteString(m.theme.Aggregate.Render(line) + "\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderStage3(msg *model.AssistantMessage) string {
	return m.theme.ModelName.Render("Chairman: "+model.DisplayName(msg.Stage3.Model)) + "\n\n" +
		m.renderer.render(msg.Stage3.Response)
}

// renderTabs draws one tab per model, highlighting the active one.
func (m Model) renderTabs(modelIDs []string, active int) string {
	labelWidth := m.theme.GetLayoutMode().TabLabelWidth()

	cells := make([]string, len(modelIDs))
	for i, id := range modelIDs {
		label := util.TruncateWidth(model.DisplayName(id), labelWidth)
		if i == active {
			cells[i] = m.theme.TabActive.Render(label)
		} else {
			cells[i] = m.theme.Tab.Render(label)
		}
	}
	return flowRow(cells, m.contentWidth())
}

// clampTab keeps the shared tab index inside a stage with n entries.
func clampTab(tab, n int) int {
	if tab < 0 || n == 0 {
		return 0
	}
	if tab >= n {
		return n - 1
	}
	return tab
}
