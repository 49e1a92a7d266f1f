// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jeranaias/council-tui/internal/logging"
	"github.com/jeranaias/council-tui/internal/model"
)

// Session drives deliberations for the TUI: it creates the backend
// conversation lazily, streams events into a Tracker and publishes a
// snapshot after every change.
type Session struct {
	client  *Client
	tracker *Tracker
	log     zerolog.Logger

	// remote is false until the tracked conversation exists on the backend
	remote atomic.Bool
}

// NewSession starts a session on conv. A nil conv means a new conversation
// is created on the first send.
func NewSession(client *Client, conv *model.Conversation, log zerolog.Logger) *Session {
	s := &Session{
		client:  client,
		tracker: NewTracker(conv),
		log:     logging.Component(log, "session"),
	}
	s.remote.Store(conv != nil)
	return s
}

// Snapshot returns an immutable copy of the current conversation.
func (s *Session) Snapshot() *model.Conversation {
	return s.tracker.Snapshot()
}

// NewConversation creates a conversation on the backend and switches to it.
func (s *Session) NewConversation(ctx context.Context) (*model.Conversation, error) {
	if s.tracker.Pending() {
		return nil, ErrBusy
	}
	conv, err := s.client.CreateConversation(ctx)
	if err != nil {
		return nil, err
	}
	s.tracker.Reset(conv)
	s.remote.Store(true)
	s.log.Info().Str("conversation", conv.ID).Msg("new conversation")
	return s.tracker.Snapshot(), nil
}

// Send runs one deliberation. On any failure the optimistic messages are
// rolled back before Send returns.
func (s *Session) Send(ctx context.Context, content string, onUpdate func(*model.Conversation)) error {
	if onUpdate == nil {
		onUpdate = func(*model.Conversation) {}
	}

	if !s.remote.Load() {
		conv, err := s.client.CreateConversation(ctx)
		if err != nil {
			return err
		}
		s.tracker.Reset(conv)
		s.remote.Store(true)
	}

	if err := s.tracker.Begin(content); err != nil {
		return err
	}
	onUpdate(s.tracker.Snapshot())

	completed := false
	err := s.client.SendMessageStream(ctx, s.tracker.ID(), content, func(ev Event) error {
		done, err := s.tracker.Apply(ev)
		if err != nil {
			return err
		}
		completed = completed || done
		onUpdate(s.tracker.Snapshot())
		return nil
	})

	if err != nil {
		s.tracker.Rollback()
		if errors.Is(err, context.Canceled) {
			s.log.Info().Msg("deliberation cancelled")
		} else {
			s.log.Warn().Err(err).Msg("deliberation rolled back")
		}
		return err
	}

	if !completed {
		s.log.Warn().Msg("stream ended without a complete event")
		s.tracker.Finish()
		onUpdate(s.tracker.Snapshot())
	}
	return nil
}
