// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package setup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/jeranaias/council-tui/internal/config"
	"github.com/jeranaias/council-tui/internal/council"
	"github.com/jeranaias/council-tui/internal/logging"
	"github.com/jeranaias/council-tui/internal/ui/components"
	"github.com/jeranaias/council-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)

	successStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	highlightStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.Purple).
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	unselectedStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)
)

const logo = `
   ___                       _ _
  / __|___ _  _ _ _  __ ___ (_) |
 | (__/ _ \ || | ' \/ _/ -_)| | |
  \___\___/\_,_|_||_\__\___||_|_|
`

const tagline = "Many models, one answer"

// =============================================================================
// WIZARD MODEL
// =============================================================================

// Phase is a step of the wizard.
type Phase int

const (
	PhaseWelcome Phase = iota
	PhaseConfigure
	PhaseCheck
	PhaseComplete
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseWelcome:
		return "welcome"
	case PhaseConfigure:
		return "configure"
	case PhaseCheck:
		return "check"
	case PhaseComplete:
		return "complete"
	}
	return "unknown"
}

// Editable fields on the configure screen, in focus order.
const (
	fieldBackend = iota
	fieldExportDir
	fieldStyle
	fieldCount
)

// checkTimeout bounds the backend check.
const checkTimeout = 5 * time.Second

// Checker tests whether a backend address answers.
type Checker func(ctx context.Context, baseURL string) error

// CheckBackend lists conversations on the backend with a short timeout and
// no retries.
func CheckBackend(ctx context.Context, baseURL string) error {
	client := council.NewClient(baseURL,
		council.WithTimeout(checkTimeout),
		council.WithRetries(0),
	)
	_, err := client.ListConversations(ctx)
	return err
}

// Options configures a Wizard.
type Options struct {
	// Config prefills the form. Nil means defaults.
	Config *config.Config

	// Path is where the finished configuration is written.
	Path string

	// Check tests the backend. Nil means CheckBackend.
	Check Checker

	Logger zerolog.Logger
}

// Wizard is the setup model.
type Wizard struct {
	phase    Phase
	width    int
	height   int
	spinner  spinner.Model
	progress progress.Model

	inputs   []textinput.Model
	focus    int
	styleIdx int

	base   *config.Config
	result *config.Config
	path   string
	check  Checker
	log    zerolog.Logger

	checking bool
	checkErr error
	saving   bool
	saved    bool
	err      error
}

// New creates a wizard.
func New(opts Options) *Wizard {
	base := opts.Config
	if base == nil {
		base = config.Default()
	}
	check := opts.Check
	if check == nil {
		check = CheckBackend
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Purple)

	w := &Wizard{
		phase:    PhaseWelcome,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		inputs: []textinput.Model{
			newInput(base.BackendURL, "http://localhost:8001"),
			newInput(base.Export.Dir, "current directory"),
		},
		styleIdx: styleIndex(base.UI.GlamourStyle),
		base:     base.Clone(),
		path:     opts.Path,
		check:    check,
		log:      logging.Component(opts.Logger, "setup"),
	}
	return w
}

func newInput(value, placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 48
	ti.SetValue(value)
	ti.CursorEnd()
	return ti
}

func styleIndex(style string) int {
	for i, s := range config.GlamourStyles {
		if strings.EqualFold(s, style) {
			return i
		}
	}
	return 0
}

// Phase returns the current phase.
func (w *Wizard) Phase() Phase {
	return w.phase
}

// Saved reports whether the configuration was written.
func (w *Wizard) Saved() bool {
	return w.saved
}

// Config returns the configuration that was validated for saving, or nil.
func (w *Wizard) Config() *config.Config {
	return w.result
}

// Err returns the last validation or write error.
func (w *Wizard) Err() error {
	return w.err
}

// CheckErr returns the backend check result.
func (w *Wizard) CheckErr() error {
	return w.checkErr
}

// Init starts the spinner.
func (w *Wizard) Init() tea.Cmd {
	return w.spinner.Tick
}

// =============================================================================
// UPDATE
// =============================================================================

type checkDoneMsg struct {
	err error
}

type savedMsg struct {
	err error
}

// Update handles messages.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return w.handleKey(msg)

	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		w.progress.Width = min(max(msg.Width-20, 20), 60)
		for i := range w.inputs {
			w.inputs[i].Width = min(max(msg.Width-30, 20), 64)
		}
		boxStyle = boxStyle.Width(min(max(msg.Width-16, 40), 70))
		return w, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(msg)
		return w, cmd

	case checkDoneMsg:
		w.checking = false
		w.checkErr = msg.err
		if msg.err != nil {
			w.log.Warn().Err(msg.err).Str("backend", w.result.BackendURL).Msg("backend check failed")
		} else {
			w.log.Info().Str("backend", w.result.BackendURL).Msg("backend reachable")
		}
		return w, nil

	case savedMsg:
		w.saving = false
		if msg.err != nil {
			w.err = msg.err
			w.log.Error().Err(msg.err).Str("path", w.path).Msg("config write failed")
			return w, nil
		}
		w.saved = true
		w.phase = PhaseComplete
		w.log.Info().Str("path", w.path).Msg("config written")
		return w, nil
	}

	return w, nil
}

func (w *Wizard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return w, tea.Quit
	}

	switch w.phase {
	case PhaseWelcome:
		switch msg.String() {
		case "enter", " ":
			w.phase = PhaseConfigure
			w.focusField(fieldBackend)
			return w, textinput.Blink
		case "q", "esc":
			return w, tea.Quit
		}

	case PhaseConfigure:
		return w.handleConfigureKey(msg)

	case PhaseCheck:
		if w.checking || w.saving {
			return w, nil
		}
		switch msg.String() {
		case "enter":
			w.saving = true
			w.err = nil
			return w, w.save()
		case "esc":
			w.phase = PhaseConfigure
			w.checkErr = nil
			w.focusField(w.focus)
			return w, textinput.Blink
		}

	case PhaseComplete:
		switch msg.String() {
		case "enter", "q", "esc":
			return w, tea.Quit
		}
	}

	return w, nil
}

func (w *Wizard) handleConfigureKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return w, tea.Quit

	case "tab", "down":
		w.focusField((w.focus + 1) % fieldCount)
		return w, nil

	case "shift+tab", "up":
		w.focusField((w.focus + fieldCount - 1) % fieldCount)
		return w, nil

	case "enter":
		if w.focus < fieldCount-1 {
			w.focusField(w.focus + 1)
			return w, nil
		}
		return w.submit()

	case "ctrl+s":
		return w.submit()
	}

	if w.focus == fieldStyle {
		n := len(config.GlamourStyles)
		switch msg.String() {
		case "left", "h":
			w.styleIdx = (w.styleIdx + n - 1) % n
		case "right", "l", " ":
			w.styleIdx = (w.styleIdx + 1) % n
		}
		return w, nil
	}

	var cmd tea.Cmd
	w.inputs[w.focus], cmd = w.inputs[w.focus].Update(msg)
	return w, cmd
}

func (w *Wizard) focusField(i int) {
	w.focus = i
	for j := range w.inputs {
		if j == i {
			w.inputs[j].Focus()
		} else {
			w.inputs[j].Blur()
		}
	}
}

// submit validates the form and starts the backend check.
func (w *Wizard) submit() (tea.Model, tea.Cmd) {
	cfg, err := w.candidate()
	if err != nil {
		w.err = err
		return w, nil
	}
	w.err = nil
	w.result = cfg
	w.phase = PhaseCheck
	w.checking = true
	return w, tea.Batch(w.spinner.Tick, w.runCheck(cfg.BackendURL))
}

func (w *Wizard) candidate() (*config.Config, error) {
	cfg := w.base.Clone()
	cfg.BackendURL = strings.TrimSpace(w.inputs[fieldBackend].Value())
	cfg.Export.Dir = strings.TrimSpace(w.inputs[fieldExportDir].Value())
	cfg.UI.GlamourStyle = config.GlamourStyles[w.styleIdx]
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// COMMANDS
// =============================================================================

func (w *Wizard) runCheck(baseURL string) tea.Cmd {
	check := w.check
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		return checkDoneMsg{err: check(ctx, baseURL)}
	}
}

func (w *Wizard) save() tea.Cmd {
	cfg, path := w.result.Clone(), w.path
	return func() tea.Msg {
		return savedMsg{err: config.SaveTOML(cfg, path)}
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the wizard.
func (w *Wizard) View() string {
	var body string
	switch w.phase {
	case PhaseWelcome:
		body = w.viewWelcome()
	case PhaseConfigure:
		body = w.viewConfigure()
	case PhaseCheck:
		body = w.viewCheck()
	case PhaseComplete:
		body = w.viewComplete()
	}

	var s strings.Builder
	s.WriteString(body)
	s.WriteString("\n\n  ")
	s.WriteString(w.progress.ViewAs(float64(w.phase) / float64(PhaseComplete)))
	return w.center(s.String())
}

func (w *Wizard) viewWelcome() string {
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().Foreground(styles.Purple).Bold(true).Render(logo))
	s.WriteString("\n")
	s.WriteString(subtitleStyle.Render("    " + tagline))
	s.WriteString("\n\n")

	welcomeText := `
Welcome to council setup!

This will:

  * Point council at your backend
  * Choose where transcripts are exported
  * Pick a Markdown style
  * Check that the backend answers
`
	s.WriteString(boxStyle.Render(welcomeText))
	s.WriteString("\n\n")

	s.WriteString(highlightStyle.Render("  Press ENTER to begin"))
	s.WriteString(dimStyle.Render("  |  Press Q to quit"))
	return s.String()
}

func (w *Wizard) viewConfigure() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("  Configure council"))
	s.WriteString("\n")

	labels := []string{"Backend URL", "Export directory"}
	for i, label := range labels {
		s.WriteString(w.fieldLabel(i, label))
		s.WriteString("\n    ")
		s.WriteString(w.inputs[i].View())
		s.WriteString("\n\n")
	}

	s.WriteString(w.fieldLabel(fieldStyle, "Markdown style"))
	s.WriteString("\n    ")
	style := fmt.Sprintf("< %s >", config.GlamourStyles[w.styleIdx])
	if w.focus == fieldStyle {
		s.WriteString(highlightStyle.Render(style))
	} else {
		s.WriteString(style)
	}
	s.WriteString("\n\n")

	if w.err != nil {
		s.WriteString(errorStyle.Render("  " + w.err.Error()))
		s.WriteString("\n\n")
	}

	s.WriteString(dimStyle.Render("  TAB to move  |  ←/→ to change style  |  ENTER to continue  |  ESC to quit"))
	return s.String()
}

func (w *Wizard) fieldLabel(i int, label string) string {
	if w.focus == i {
		return selectedStyle.Render("  > " + label)
	}
	return unselectedStyle.Render("    " + label)
}

func (w *Wizard) viewCheck() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("  Backend Check"))
	s.WriteString("\n")

	switch {
	case w.checking:
		s.WriteString(fmt.Sprintf("  %s Contacting %s...\n", w.spinner.View(), w.result.BackendURL))
		return s.String()

	case w.checkErr == nil:
		s.WriteString(successStyle.Render("  [OK] Backend reachable"))
		s.WriteString(dimStyle.Render("  " + w.result.BackendURL))

	default:
		d := components.Diagnose(w.checkErr)
		s.WriteString(warningStyle.Render("  [WARN] " + d.Title))
		s.WriteString("\n")
		s.WriteString(dimStyle.Render("     " + d.Message))
		if d.Suggestion != "" {
			s.WriteString("\n")
			s.WriteString(dimStyle.Render("     " + d.Suggestion))
		}
		s.WriteString("\n\n")
		s.WriteString(dimStyle.Render("  You can save anyway and start the backend later."))
	}
	s.WriteString("\n\n")

	if w.saving {
		s.WriteString(fmt.Sprintf("  %s Writing %s\n", w.spinner.View(), w.path))
		return s.String()
	}
	if w.err != nil {
		s.WriteString(errorStyle.Render("  " + w.err.Error()))
		s.WriteString("\n\n")
	}

	s.WriteString(highlightStyle.Render("  Press ENTER to save"))
	s.WriteString(dimStyle.Render("  |  ESC to edit"))
	return s.String()
}

func (w *Wizard) viewComplete() string {
	var s strings.Builder

	successArt := `
    +------------------------------------------+
    |                                          |
    |        *** Setup Complete! ***           |
    |                                          |
    +------------------------------------------+
`
	s.WriteString(successStyle.Render(successArt))
	s.WriteString("\n")

	s.WriteString(dimStyle.Render(fmt.Sprintf("  Config: %s", w.path)))
	s.WriteString("\n\n")
	s.WriteString("  Next: ")
	s.WriteString(highlightStyle.Render("council chat"))
	s.WriteString("\n\n")
	s.WriteString(dimStyle.Render("  Press ENTER to exit"))
	return s.String()
}

// center pads content down to a third of the screen.
func (w *Wizard) center(content string) string {
	if w.width == 0 || w.height == 0 {
		return content
	}

	lines := strings.Count(content, "\n") + 1
	top := (w.height - lines) / 3
	if top < 0 {
		top = 0
	}
	return strings.Repeat("\n", top) + content
}
