// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/council-tui/internal/model"
)

// Theme holds the styled components of the council view.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER / STATUS
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style
	StatusBar      lipgloss.Style
	StatusKey      lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel      lipgloss.Style
	UserBubble     lipgloss.Style
	AssistantLabel lipgloss.Style
	Separator      lipgloss.Style

	// ==========================================================================
	// STAGES
	// ==========================================================================

	StageTitle   [3]lipgloss.Style
	StageBox     [3]lipgloss.Style
	StageLoading lipgloss.Style
	Tab          lipgloss.Style
	TabActive    lipgloss.Style
	ModelName    lipgloss.Style
	Aggregate    lipgloss.Style
	Muted        lipgloss.Style

	// ==========================================================================
	// INPUT / FEEDBACK
	// ==========================================================================

	InputContainer lipgloss.Style
	InputHint      lipgloss.Style
	ErrorBox       lipgloss.Style
	Success        lipgloss.Style
	Welcome        lipgloss.Style
	WelcomeTitle   lipgloss.Style
}

// NewTheme creates a theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.HeaderSubtitle = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().Bold(true).Foreground(Cyan)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 1)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.Separator = lipgloss.NewStyle().Foreground(Overlay)

	borders := [3]lipgloss.AdaptiveColor{Stage1Border, Stage2Border, Stage3Border}
	for i, c := range borders {
		t.StageTitle[i] = lipgloss.NewStyle().Bold(true).Foreground(c)
		t.StageBox[i] = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(c).
			Padding(0, 1)
	}
	// The chairman's answer is the one people read
	t.StageBox[2] = t.StageBox[2].Background(Stage3Bg).BorderStyle(lipgloss.ThickBorder())

	t.StageLoading = lipgloss.NewStyle().Foreground(Amber).Italic(true)
	t.Tab = lipgloss.NewStyle().Foreground(TextSecondary).Padding(0, 1)
	t.TabActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 1)
	t.ModelName = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	t.Aggregate = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.InputHint = lipgloss.NewStyle().Foreground(TextMuted)
	t.ErrorBox = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)
	t.Success = lipgloss.NewStyle().Foreground(Emerald)
	t.Welcome = lipgloss.NewStyle().Foreground(TextSecondary).Align(lipgloss.Center)
	t.WelcomeTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
}

// StageStyles returns the title and box styles for a stage. Out of range
// stages fall back to Stage 1's look.
func (t *Theme) StageStyles(s model.Stage) (title, box lipgloss.Style) {
	i := int(s) - 1
	if i < 0 || i >= len(t.StageTitle) {
		i = 0
	}
	return t.StageTitle[i], t.StageBox[i]
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// TabLabelWidth is the display width allotted to one model tab label.
func (m LayoutMode) TabLabelWidth() int {
	switch m {
	case LayoutNarrow:
		return 10
	case LayoutMedium:
		return 18
	default:
		return 28
	}
}
