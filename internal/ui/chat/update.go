// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/stage"
)

// ErrNoSink is returned when export is requested without a download sink.
var ErrNoSink = errors.New("export is not configured")

// statusTTL is how long transient status messages stay up.
const statusTTL = 4 * time.Second

// newConversationTimeout bounds the backend call behind ctrl+n.
const newConversationTimeout = 15 * time.Second

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		vp, cmd := m.viewport.Update(msg)
		*m.viewport = vp
		return m, cmd

	case eventMsg:
		next, cmd := m.Update(msg.inner)
		return next, tea.Batch(cmd, m.stream.next())

	case SnapshotMsg:
		return m.handleSnapshot(msg.Conversation)

	case LoadingMsg:
		m.loading = msg.Loading
		if m.loading {
			m.input.Blur()
			return m, m.startSpinner()
		}
		m.refresh()
		return m, m.input.Focus()

	case SendErrorMsg:
		return m.handleSendError(msg)

	case NewConversationMsg:
		if msg.Err != nil {
			m.lastError = msg.Err
			return m, nil
		}
		m.lastError = nil
		return m.handleSnapshot(msg.Conversation)

	case ExportDoneMsg:
		return m.handleExportDone(msg)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	return m, nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func (m Model) handleSnapshot(conv *model.Conversation) (tea.Model, tea.Cmd) {
	if !sameConversation(m.conversation, conv) && !m.adoptsRemoteID(conv) {
		m.composer.Reset()
		m.input.Reset()
		m.activeTab = 0
	}
	m.conversation = conv

	m.refresh()
	m.driver.Observe(conv)

	return m, m.startSpinner()
}

func sameConversation(a, b *model.Conversation) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

// adoptsRemoteID reports whether conv is the backend's copy of the empty
// local conversation created on the first send. The ID changes but the
// conversation is the same one, so the draft and tab survive.
func (m Model) adoptsRemoteID(conv *model.Conversation) bool {
	if !m.loading || m.conversation == nil || conv == nil {
		return false
	}
	return len(m.conversation.Messages) == 0
}

func (m Model) handleSendError(msg SendErrorMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	focus := m.input.Focus()
	if errors.Is(msg.Err, context.Canceled) {
		m.lastError = nil
		m.setStatus("Deliberation cancelled")
	} else {
		m.lastError = msg.Err
	}

	if msg.Conversation != nil {
		next, _ := m.handleSnapshot(msg.Conversation)
		m = next.(Model)
	} else {
		m.refresh()
	}
	return m, tea.Batch(focus, m.clearStatusLater())
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.stream.stop()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		if m.stream.interrupt() {
			m.setStatus("Cancelling...")
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Export):
		return m, m.exportCmd()

	case key.Matches(msg, m.keyMap.New):
		return m.newConversation()

	case key.Matches(msg, m.keyMap.NextTab):
		m.cycleTab(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PrevTab):
		m.cycleTab(-1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	// The input is locked while a deliberation runs
	if m.readOnly || m.loading {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Newline):
		m.composer.PressEnter(true, m.loading)
		m.input.InsertString("\n")
		m.composer.UpdateInput(m.input.Value())
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		m.composer.UpdateInput(m.input.Value())
		sent := m.composer.Submissions()
		m.composer.PressEnter(false, m.loading)
		if m.composer.Submissions() > sent {
			m.input.Reset()
			m.input.Blur()
			m.loading = true
			m.lastError = nil
			return m, m.startSpinner()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.composer.UpdateInput(m.input.Value())
	return m, cmd
}

// cycleTab moves the model tab selection, wrapping within the widest stage
// of the latest deliberation.
func (m *Model) cycleTab(delta int) {
	n := m.tabCount()
	if n == 0 {
		m.activeTab = 0
		return
	}
	m.activeTab = ((m.activeTab+delta)%n + n) % n
	m.refresh()
}

func (m Model) tabCount() int {
	if m.conversation == nil {
		return 0
	}
	last := m.conversation.LastAssistant()
	if last == nil {
		return 0
	}
	return max(len(last.Stage1), len(last.Stage2))
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) exportCmd() tea.Cmd {
	conv := m.conversation
	if conv != nil {
		conv = conv.Clone()
	}
	driver := m.driver
	return func() tea.Msg {
		path, err := driver.Download(conv)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

func (m Model) handleExportDone(msg ExportDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil && msg.Path == "" {
		m.log.Error().Err(msg.Err).Msg("export failed")
		m.lastError = fmt.Errorf("export: %w", msg.Err)
		return m, nil
	}
	if msg.Err != nil {
		// Written, but the opener failed
		m.log.Warn().Err(msg.Err).Str("path", msg.Path).Msg("export opener failed")
	}
	m.log.Info().Str("path", msg.Path).Msg("transcript exported")
	m.setStatus("Exported " + msg.Path)
	return m, m.clearStatusLater()
}

func (m Model) newConversation() (tea.Model, tea.Cmd) {
	if m.readOnly || m.loading {
		return m, nil
	}
	session := m.stream.session
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), newConversationTimeout)
		defer cancel()
		conv, err := session.NewConversation(ctx)
		return NewConversationMsg{Conversation: conv, Err: err}
	}
}

// busy is true while a deliberation is in flight or the snapshot shows a
// running stage.
func (m Model) busy() bool {
	if m.loading || m.stream.Busy() {
		return true
	}
	if m.conversation == nil {
		return false
	}
	return stage.Project(m.conversation.LastAssistant()).Busy()
}

func (m *Model) startSpinner() tea.Cmd {
	if m.ticking || !m.busy() {
		return nil
	}
	m.ticking = true
	return m.spinner.Tick
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusSeq++
}

func (m Model) clearStatusLater() tea.Cmd {
	if m.status == "" {
		return nil
	}
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.input.SetWidth(calculateContentWidth(msg.Width, 4))

	m.viewport.Width = msg.Width
	m.viewport.Height = m.viewportHeight()

	m.renderer = newCachedRenderer(NewRenderer(m.glamourStyle, m.contentWidth()))
	atBottom := m.viewport.AtBottom()
	m.refresh()
	if atBottom {
		m.viewport.GotoBottom()
	}
	return m, nil
}

// viewportHeight is the height left after header, input and status bar.
func (m Model) viewportHeight() int {
	h := m.height - headerHeight - statusHeight
	if !m.readOnly {
		h -= m.input.Height() + inputChrome
	}
	if h < 1 {
		h = 1
	}
	return h
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderConversation())
}
