// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/council-tui/internal/export"
	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a chat Model.
type Options struct {
	// Session runs deliberations. Nil makes the view read-only.
	Session Session

	// Sink receives downloads. Nil disables export.
	Sink export.Sink

	// Conversation is the initial snapshot. Defaults to Session.Snapshot().
	Conversation *model.Conversation

	// GlamourStyle selects the Markdown style ("auto", "dark", "plain", ...).
	GlamourStyle string

	// WordWrap caps the rendered text width. 0 follows the terminal.
	WordWrap int

	// ShowWelcome shows the welcome screen for empty conversations.
	ShowWelcome bool

	// Source is shown in the header (backend URL or file path).
	Source string

	Logger zerolog.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the council view.
type Model struct {
	theme  *styles.Theme
	keyMap KeyMap
	log    zerolog.Logger

	// Dimensions
	width  int
	height int

	// Latest snapshot; never mutated here
	conversation *model.Conversation

	// isLoading is owned here and fed to the composer
	loading  bool
	readOnly bool

	composer *Composer
	driver   *Driver
	stream   *streamer

	// Rendering
	glamourStyle string
	wordWrap     int
	renderer     *cachedRenderer
	activeTab    int
	showWelcome  bool
	source       string

	// UI components. The viewport is shared with the driver's scroller.
	viewport *viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	ticking  bool

	// Status line
	status    string
	statusSeq int
	lastError error
}

// viewportScroller adapts the viewport to the driver.
type viewportScroller struct {
	vp *viewport.Model
}

func (s viewportScroller) ScrollToEnd() {
	s.vp.GotoBottom()
}

// New creates a council view.
func New(theme *styles.Theme, opts Options) Model {
	if theme == nil {
		theme = styles.NewTheme()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask the council... (Enter to send, Alt+Enter for a new line)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)
	// Enter submits; the composer decides when a line break goes in
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.StageLoading

	stream := newStreamer(opts.Session, opts.Logger)

	conv := opts.Conversation
	if conv == nil && opts.Session != nil {
		conv = opts.Session.Snapshot()
	}

	m := Model{
		theme:        theme,
		keyMap:       DefaultKeyMap(),
		log:          opts.Logger,
		conversation: conv,
		readOnly:     opts.Session == nil,
		composer:     NewComposer(stream.send),
		driver:       NewDriver(viewportScroller{vp: &vp}, opts.Sink),
		stream:       stream,
		glamourStyle: opts.GlamourStyle,
		wordWrap:     opts.WordWrap,
		showWelcome:  opts.ShowWelcome,
		source:       opts.Source,
		viewport:     &vp,
		input:        ta,
		spinner:      sp,
	}
	m.renderer = newCachedRenderer(NewRenderer(m.glamourStyle, m.contentWidth()))
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the event pump.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.stream.next()}
	if !m.readOnly {
		cmds = append(cmds, textarea.Blink)
	}
	return tea.Batch(cmds...)
}

// View renders the whole screen.
func (m Model) View() string {
	return m.renderScreen()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Conversation returns the snapshot currently displayed.
func (m Model) Conversation() *model.Conversation {
	return m.conversation
}

// IsLoading reports whether a deliberation is running.
func (m Model) IsLoading() bool {
	return m.loading
}

// ReadOnly reports whether sending is disabled.
func (m Model) ReadOnly() bool {
	return m.readOnly
}

// ActiveTab returns the selected model tab index.
func (m Model) ActiveTab() int {
	return m.activeTab
}

// Status returns the transient status line.
func (m Model) Status() string {
	return m.status
}

// Publish pushes a snapshot into the view from any goroutine. File watchers
// use it to feed read-only views.
func (m Model) Publish(conv *model.Conversation) {
	m.stream.publish(SnapshotMsg{Conversation: conv})
}

// Shutdown cancels any deliberation and unblocks pending publishers.
func (m Model) Shutdown() {
	m.stream.stop()
}

// contentWidth is the text width inside stage boxes.
func (m Model) contentWidth() int {
	w := m.width
	if w <= 0 {
		w = 80
	}
	w = calculateContentWidth(w, 6)
	if m.wordWrap > 0 && m.wordWrap < w {
		w = m.wordWrap
	}
	return w
}
