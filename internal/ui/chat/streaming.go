// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// SESSION
// =============================================================================

// Session is the collaborator that owns the live conversation and runs
// deliberations against the backend.
type Session interface {
	// Snapshot returns an immutable copy of the current conversation.
	Snapshot() *model.Conversation

	// Send runs one deliberation. onUpdate receives a fresh snapshot after
	// every state change. On failure the session rolls back its optimistic
	// messages before returning.
	Send(ctx context.Context, content string, onUpdate func(*model.Conversation)) error

	// NewConversation starts an empty conversation and makes it current.
	NewConversation(ctx context.Context) (*model.Conversation, error)
}

// =============================================================================
// EVENT PUMP
// =============================================================================

const eventBuffer = 64

// streamer moves snapshots from background goroutines into the Bubble Tea
// loop. Bubble Tea copies the model on every update, so all shared state
// lives behind this pointer.
type streamer struct {
	session Session
	log     zerolog.Logger

	events  chan tea.Msg
	done    chan struct{}
	stopped sync.Once

	cancels *cancelManager
	busy    atomic.Bool
}

func newStreamer(session Session, log zerolog.Logger) *streamer {
	return &streamer{
		session: session,
		log:     log,
		events:  make(chan tea.Msg, eventBuffer),
		done:    make(chan struct{}),
		cancels: newCancelManager(),
	}
}

// send starts a deliberation in the background. It is the Composer's
// SendFunc, so it runs synchronously inside Update.
func (s *streamer) send(content string) {
	if s.session == nil {
		return
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.log.Warn().Msg("send ignored: deliberation already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancels.set(cancel)
	go s.run(ctx, content)
}

func (s *streamer) run(ctx context.Context, content string) {
	s.log.Debug().Int("bytes", len(content)).Msg("deliberation started")

	err := s.session.Send(ctx, content, func(conv *model.Conversation) {
		s.publish(SnapshotMsg{Conversation: conv})
	})

	// Release before publishing so the next Enter is not swallowed
	s.cancels.cancel()
	s.busy.Store(false)

	if err != nil {
		s.log.Error().Err(err).Msg("deliberation failed")
		s.publish(SendErrorMsg{Err: err, Conversation: s.session.Snapshot()})
		return
	}
	s.log.Debug().Msg("deliberation complete")
	s.publish(LoadingMsg{Loading: false})
}

// Busy reports whether a deliberation is in flight.
func (s *streamer) Busy() bool {
	return s.busy.Load()
}

// interrupt cancels the running deliberation, if any.
func (s *streamer) interrupt() bool {
	return s.cancels.cancel()
}

// publish hands msg to the Update loop unless the pump was stopped.
func (s *streamer) publish(msg tea.Msg) {
	select {
	case s.events <- msg:
	case <-s.done:
	}
}

// stop cancels any deliberation and unblocks all publishers.
func (s *streamer) stop() {
	s.stopped.Do(func() {
		s.cancels.cancel()
		close(s.done)
	})
}

// next waits for the next pumped event.
func (s *streamer) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.events:
			return eventMsg{inner: msg}
		case <-s.done:
			return nil
		}
	}
}
