// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"fmt"
	"sync"

	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// TRACKER
// =============================================================================

// Tracker owns a live conversation and applies stream events to it. All
// methods are safe for concurrent use; readers only ever get clones.
type Tracker struct {
	mu   sync.Mutex
	conv *model.Conversation

	// mark is the message count before the optimistic pair, -1 when idle
	mark int
}

// NewTracker tracks conv, or a fresh local conversation when conv is nil.
func NewTracker(conv *model.Conversation) *Tracker {
	if conv == nil {
		conv = model.NewConversation()
	}
	return &Tracker{conv: conv, mark: -1}
}

// Reset replaces the tracked conversation. Any pending deliberation is
// dropped.
func (t *Tracker) Reset(conv *model.Conversation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if conv == nil {
		conv = model.NewConversation()
	}
	t.conv = conv
	t.mark = -1
}

// ID returns the tracked conversation's identifier.
func (t *Tracker) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conv.ID
}

// Pending reports whether a deliberation is in progress.
func (t *Tracker) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mark >= 0
}

// Begin appends the user's message and an empty assistant placeholder.
func (t *Tracker) Begin(content string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mark >= 0 {
		return ErrBusy
	}
	t.mark = t.conv.MessageCount()
	t.conv.AddUserMessage(content)
	t.conv.AddAssistantMessage()
	return nil
}

// Apply folds one stream event into the pending assistant message. It
// returns true once the deliberation is complete. Unknown event types are
// ignored so newer backends keep working.
func (t *Tracker) Apply(ev Event) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mark < 0 {
		return false, ErrNoDeliberation
	}
	msg := t.conv.LastAssistant()
	if msg == nil {
		return false, ErrNoDeliberation
	}

	switch ev.Type {
	case EventStage1Start:
		msg.BeginStage(model.Stage1)

	case EventStage1Complete:
		responses, err := ev.Stage1()
		if err != nil {
			return false, err
		}
		if err := msg.CompleteStage1(responses); err != nil {
			return false, err
		}

	case EventStage2Start:
		msg.BeginStage(model.Stage2)

	case EventStage2Complete:
		rankings, meta, err := ev.Stage2()
		if err != nil {
			return false, err
		}
		if err := msg.CompleteStage2(rankings, meta); err != nil {
			return false, err
		}

	case EventStage3Start:
		msg.BeginStage(model.Stage3)

	case EventStage3Complete:
		final, err := ev.Stage3()
		if err != nil {
			return false, err
		}
		if err := msg.CompleteStage3(final); err != nil {
			return false, err
		}

	case EventTitleComplete:
		title, err := ev.Title()
		if err != nil {
			return false, err
		}
		t.conv.Title = title

	case EventComplete:
		msg.ClearLoading()
		t.mark = -1
		return true, nil

	case EventError:
		// Rollback or Finish decides what happens to the placeholder
		return false, nil
	}

	return false, nil
}

// Finish ends a deliberation that stopped without a complete event, keeping
// whatever stages arrived.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mark < 0 {
		return
	}
	if msg := t.conv.LastAssistant(); msg != nil {
		msg.ClearLoading()
	}
	t.mark = -1
}

// Rollback removes the optimistic user and assistant messages added by Begin.
func (t *Tracker) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mark < 0 {
		return
	}
	t.conv.Truncate(t.mark)
	t.mark = -1
}

// Snapshot returns a deep copy of the conversation.
func (t *Tracker) Snapshot() *model.Conversation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conv.Clone()
}

// String is used in logs.
func (t *Tracker) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("conversation %s (%d messages, pending=%t)", t.conv.ID, t.conv.MessageCount(), t.mark >= 0)
}
