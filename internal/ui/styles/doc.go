// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the council TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection, and NewTheme queries the terminal with termenv once at startup.

# Stages

Each deliberation stage has its own border color:

	Stage 1 - blue    individual responses
	Stage 2 - amber   peer rankings
	Stage 3 - green   chairman synthesis (thick border, tinted background)

# Layout

GetLayoutMode buckets the terminal width into Narrow, Medium and Wide, and
TabLabelWidth sizes the per-model tab labels accordingly.
*/
package styles
