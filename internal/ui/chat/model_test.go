// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/council-tui/internal/export"
	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/ui/styles"
)

// fakeSession blocks every Send until released or cancelled.
type fakeSession struct {
	mu      sync.Mutex
	conv    *model.Conversation
	sent    chan string
	release chan error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		conv:    &model.Conversation{ID: "c1"},
		sent:    make(chan string, 4),
		release: make(chan error, 1),
	}
}

func (f *fakeSession) Snapshot() *model.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conv.Clone()
}

func (f *fakeSession) Send(ctx context.Context, content string, onUpdate func(*model.Conversation)) error {
	f.sent <- content
	select {
	case err := <-f.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSession) NewConversation(context.Context) (*model.Conversation, error) {
	return &model.Conversation{ID: "fresh"}, nil
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	opts.Logger = zerolog.Nop()
	m := New(styles.NewTheme(), opts)
	t.Cleanup(m.Shutdown)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func deliberation() *model.Conversation {
	return &model.Conversation{
		ID:    "c1",
		Title: "Capitals",
		Messages: []model.Message{
			&model.UserMessage{Content: "Capital of France?"},
			&model.AssistantMessage{
				Stage1: []model.ModelResponse{
					{Model: "openai/gpt-4", Response: "Paris"},
					{Model: "google/gemini", Response: "Paris, France"},
					{Model: "localmodel", Response: "It is Paris"},
				},
				Stage2: []model.PeerRanking{
					{Model: "openai/gpt-4", Ranking: "Response A is best", ParsedRanking: []string{"Response A"}},
				},
				Metadata: model.Metadata{
					LabelToModel:      map[string]string{"Response A": "google/gemini"},
					AggregateRankings: []model.AggregateRanking{{Model: "google/gemini", AverageRank: 1.5, RankingsCount: 2}},
				},
				Loading: model.Loading{Stage3: true},
			},
		},
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestModel_EnterSubmitsRawInput(t *testing.T) {
	session := newFakeSession()
	m := newTestModel(t, Options{Session: session})

	m = typeText(t, m, "  hello council ")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd, "spinner should start")

	select {
	case got := <-session.sent:
		assert.Equal(t, "  hello council ", got)
	case <-time.After(2 * time.Second):
		t.Fatal("send was not called")
	}
	assert.True(t, m.IsLoading())
	assert.Equal(t, "", m.input.Value())

	// A second Enter while loading sends nothing
	m = typeText(t, m, "again")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "", m.input.Value())
	select {
	case got := <-session.sent:
		t.Fatalf("unexpected send %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestModel_BlankEnterDoesNothing(t *testing.T) {
	session := newFakeSession()
	m := newTestModel(t, Options{Session: session})

	m = typeText(t, m, "   ")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.IsLoading())
	assert.Equal(t, "   ", m.input.Value(), "no newline inserted")
	assert.Len(t, session.sent, 0)
}

func TestModel_ModifiedEnterInsertsNewline(t *testing.T) {
	session := newFakeSession()
	m := newTestModel(t, Options{Session: session})

	m = typeText(t, m, "one")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	m = typeText(t, m, "two")

	assert.Equal(t, "one\ntwo", m.input.Value())
	assert.Equal(t, "one\ntwo", m.composer.Input())
	assert.Len(t, session.sent, 0)
}

func TestModel_InputLockedWhileLoading(t *testing.T) {
	session := newFakeSession()
	m := newTestModel(t, Options{Session: session})

	m = typeText(t, m, "first")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.IsLoading())
	<-session.sent
	assert.False(t, m.input.Focused())

	m = typeText(t, m, "typed while loading")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "", m.input.Value())
	assert.Equal(t, "", m.composer.Input())

	m, _ = update(t, m, LoadingMsg{Loading: false})
	assert.True(t, m.input.Focused())
	m = typeText(t, m, "next")
	assert.Equal(t, "next", m.composer.Input())
}

func TestModel_SendErrorRefocusesInput(t *testing.T) {
	m := newTestModel(t, Options{Session: newFakeSession()})

	m, _ = update(t, m, LoadingMsg{Loading: true})
	require.False(t, m.input.Focused())

	m, _ = update(t, m, SendErrorMsg{Err: errors.New("backend down")})
	assert.True(t, m.input.Focused())
	m = typeText(t, m, "retry")
	assert.Equal(t, "retry", m.input.Value())
}

func TestModel_SendErrorClearsLoading(t *testing.T) {
	session := newFakeSession()
	m := newTestModel(t, Options{Session: session})

	m = typeText(t, m, "q")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.IsLoading())

	m, _ = update(t, m, SendErrorMsg{Err: errors.New("backend down"), Conversation: &model.Conversation{ID: "c1"}})
	assert.False(t, m.IsLoading())
	assert.Contains(t, m.View(), "backend down")

	m, _ = update(t, m, SendErrorMsg{Err: errors.New("dial tcp 127.0.0.1:8001: connect: connection refused")})
	assert.Contains(t, m.View(), "Backend Unreachable")

	m, _ = update(t, m, SendErrorMsg{Err: context.Canceled})
	assert.Equal(t, "Deliberation cancelled", m.Status())
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func TestModel_SnapshotRendersStages(t *testing.T) {
	m := newTestModel(t, Options{})
	m, _ = update(t, m, SnapshotMsg{Conversation: deliberation()})

	content := m.renderConversation()
	assert.Contains(t, content, "Capital of France?")
	assert.Contains(t, content, "Stage 1: Individual Responses")
	assert.Contains(t, content, "Stage 2: Peer Rankings")
	assert.Contains(t, content, "Running Stage 3: Final synthesis...")
	assert.NotContains(t, content, "Stage 3: Final Council Answer")
	assert.Contains(t, content, "**gemini** is best", "rankings are de-anonymized")
	assert.Contains(t, content, "avg 1.50")
	assert.True(t, m.busy())
}

func TestModel_TabCycling(t *testing.T) {
	m := newTestModel(t, Options{})
	m, _ = update(t, m, SnapshotMsg{Conversation: deliberation()})

	for i := 0; i < 4; i++ {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	assert.Equal(t, 1, m.ActiveTab())
	assert.Contains(t, m.renderConversation(), "Paris, France")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 2, m.ActiveTab())
	assert.Contains(t, m.renderConversation(), "It is Paris")
}

func TestModel_IdentityChangeResetsInput(t *testing.T) {
	session := newFakeSession()
	m := newTestModel(t, Options{Session: session})

	m, _ = update(t, m, SnapshotMsg{Conversation: &model.Conversation{ID: "c1"}})
	m = typeText(t, m, "draft")
	m, _ = update(t, m, SnapshotMsg{Conversation: &model.Conversation{ID: "c1", Title: "t"}})
	assert.Equal(t, "draft", m.input.Value())

	m, _ = update(t, m, SnapshotMsg{Conversation: &model.Conversation{ID: "c2"}})
	assert.Equal(t, "", m.input.Value())
	assert.Equal(t, "", m.composer.Input())
}

func TestModel_RemoteIDKeepsDraft(t *testing.T) {
	m := newTestModel(t, Options{Session: newFakeSession(), Conversation: &model.Conversation{ID: "local"}})

	m, _ = update(t, m, LoadingMsg{Loading: true})
	m.input.SetValue("draft")
	m.composer.UpdateInput("draft")
	m.activeTab = 1

	remote := &model.Conversation{ID: "remote", Messages: []model.Message{&model.UserMessage{Content: "q"}}}
	m, _ = update(t, m, SnapshotMsg{Conversation: remote})
	assert.Equal(t, "remote", m.Conversation().ID)
	assert.Equal(t, "draft", m.input.Value())
	assert.Equal(t, "draft", m.composer.Input())
	assert.Equal(t, 1, m.activeTab)

	// Once settled, a different ID is a real switch
	m, _ = update(t, m, LoadingMsg{Loading: false})
	m, _ = update(t, m, SnapshotMsg{Conversation: &model.Conversation{ID: "other"}})
	assert.Equal(t, "", m.input.Value())
	assert.Equal(t, 0, m.activeTab)
}

func TestModel_ReadOnlyIgnoresInput(t *testing.T) {
	m := newTestModel(t, Options{ShowWelcome: true})
	assert.True(t, m.ReadOnly())
	assert.Contains(t, m.renderConversation(), "Welcome to LLM Council")

	m = typeText(t, m, "ignored")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "", m.input.Value())
	assert.False(t, m.IsLoading())
}

func TestModel_PublishFeedsEventPump(t *testing.T) {
	m := newTestModel(t, Options{})
	m.Publish(deliberation())

	msg := m.stream.next()()
	ev, ok := msg.(eventMsg)
	require.True(t, ok)

	m, cmd := update(t, m, ev)
	assert.NotNil(t, cmd, "the pump must be re-armed")
	assert.Equal(t, "Capitals", m.Conversation().Title)
}

// =============================================================================
// EXPORT
// =============================================================================

func TestModel_ExportWritesTranscript(t *testing.T) {
	dir := t.TempDir()
	m := newTestModel(t, Options{Sink: export.NewFileSink(dir, false)})
	m, _ = update(t, m, SnapshotMsg{Conversation: deliberation()})

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)

	done, ok := cmd().(ExportDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.True(t, strings.HasSuffix(done.Path, "capitals.md"))

	m, _ = update(t, m, done)
	assert.Equal(t, "Exported "+done.Path, m.Status())
}

func TestModel_ExportWithoutSink(t *testing.T) {
	m := newTestModel(t, Options{})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	done := cmd().(ExportDoneMsg)
	assert.ErrorIs(t, done.Err, ErrNoSink)

	m, _ = update(t, m, done)
	assert.Contains(t, m.View(), "export is not configured")
}

func TestModel_QuitStopsPump(t *testing.T) {
	m := newTestModel(t, Options{})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Nil(t, m.stream.next()(), "stopped pump yields nil")
}

func TestClampTab(t *testing.T) {
	assert.Equal(t, 0, clampTab(5, 0))
	assert.Equal(t, 2, clampTab(5, 3))
	assert.Equal(t, 0, clampTab(-1, 3))
	assert.Equal(t, 1, clampTab(1, 3))
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "hello\nworld", wrapText("hello world", 7))
	assert.Equal(t, "a\nb", wrapText("a\nb", 10))
	assert.Equal(t, "abc", wrapText("abc", 0))
}
