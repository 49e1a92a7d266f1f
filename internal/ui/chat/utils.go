// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// Renderer turns Markdown into terminal output. *glamour.TermRenderer
// satisfies it. Collaborator text is trusted and rendered as-is.
type Renderer interface {
	Render(in string) (string, error)
}

// StylePlain disables glamour; text is only word-wrapped.
const StylePlain = "plain"

// NewRenderer builds a glamour renderer for the given style ("auto", "dark",
// "light", "notty", ...) wrapped at width. An empty or plain style, or a
// style glamour rejects, gives a plain renderer.
func NewRenderer(style string, width int) Renderer {
	if style == "" || style == StylePlain {
		return plainRenderer{width: width}
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return plainRenderer{width: width}
	}
	return r
}

type plainRenderer struct {
	width int
}

func (p plainRenderer) Render(in string) (string, error) {
	return wrapText(in, p.width), nil
}

// cachedRenderer memoizes rendered text. Spinner ticks re-render the whole
// transcript, and glamour is far too slow to run on every frame.
type cachedRenderer struct {
	r     Renderer
	cache map[string]string
}

func newCachedRenderer(r Renderer) *cachedRenderer {
	return &cachedRenderer{r: r, cache: make(map[string]string)}
}

func (c *cachedRenderer) render(text string) string {
	if out, ok := c.cache[text]; ok {
		return out
	}
	out, err := c.r.Render(text)
	if err != nil {
		out = text
	}
	out = strings.Trim(out, "\n")
	c.cache[text] = out
	return out
}

// =============================================================================
// TEXT UTILITIES
// =============================================================================

// formatTimestamp formats a creation time relative to now:
//   - Today: just time (e.g., "15:04")
//   - This week: day and time (e.g., "Mon 15:04")
//   - Older: date and time (e.g., "Jan 2 15:04")
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	if now.Sub(t) < 7*24*time.Hour {
		return t.Format("Mon 15:04")
	}
	return t.Format("Jan 2 15:04")
}

// calculateContentWidth returns the usable width inside a bordered box.
// Returns minimum of 3 for extremely narrow widths.
func calculateContentWidth(totalWidth, margin int) int {
	contentWidth := totalWidth - margin
	if contentWidth < 3 {
		contentWidth = 3
	}
	return contentWidth
}

// wrapText wraps text to a maximum width, handling Unicode correctly.
// It preserves existing line breaks and breaks long lines at spaces.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteString("\n")
		}

		runes := []rune(line)
		for len(runes) > maxWidth {
			breakPoint := maxWidth
			for j := maxWidth; j > 0; j-- {
				if runes[j] == ' ' {
					breakPoint = j
					break
				}
			}

			result.WriteString(string(runes[:breakPoint]))
			result.WriteString("\n")
			runes = []rune(strings.TrimLeft(string(runes[breakPoint:]), " "))
		}
		result.WriteString(string(runes))
	}

	return result.String()
}

// flowRow lays rendered cells left to right, wrapping onto a new row when
// the next cell would exceed width.
func flowRow(cells []string, width int) string {
	var rows []string
	var row []string
	used := 0

	for _, c := range cells {
		w := lipgloss.Width(c)
		if len(row) > 0 && used+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, used = nil, 0
		}
		row = append(row, c)
		used += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return strings.Join(rows, "\n")
}
