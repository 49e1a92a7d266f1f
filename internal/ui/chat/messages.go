// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// SNAPSHOT MESSAGES
// =============================================================================

// SnapshotMsg delivers a new conversation snapshot from the collaborator.
// The conversation must not be mutated after it is sent.
type SnapshotMsg struct {
	Conversation *model.Conversation
}

// LoadingMsg reports whether a deliberation is running.
type LoadingMsg struct {
	Loading bool
}

// SendErrorMsg reports a failed deliberation. Conversation is the snapshot
// after the collaborator rolled back, if it has one.
type SendErrorMsg struct {
	Err          error
	Conversation *model.Conversation
}

// NewConversationMsg carries the result of starting a new conversation.
type NewConversationMsg struct {
	Conversation *model.Conversation
	Err          error
}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// ExportDoneMsg reports the outcome of a download.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// =============================================================================
// INTERNAL
// =============================================================================

// eventMsg wraps messages read off the event pump so that exactly one reader
// is re-armed per delivered event.
type eventMsg struct {
	inner tea.Msg
}

// clearStatusMsg clears a transient status line if it is still the one shown.
type clearStatusMsg struct {
	seq int
}
