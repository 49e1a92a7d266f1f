// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeranaias/council-tui/internal/config"
	"github.com/jeranaias/council-tui/internal/council"
	"github.com/jeranaias/council-tui/internal/export"
	"github.com/jeranaias/council-tui/internal/logging"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// app carries state shared by all commands of one invocation.
type app struct {
	// Global flags
	configPath string
	logLevel   string
	backend    string

	cfg       *config.Config
	log       zerolog.Logger
	logCloser io.Closer

	// runProgram runs a TUI model to completion; replaced in tests
	runProgram func(tea.Model) error

	// openLog builds the logger. Nil means logging.New
	openLog func(config.LogConfig) (zerolog.Logger, io.Closer, error)
}

// newRootCommand builds the council command tree.
func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "council",
		Short: "LLM Council - watch a council of models deliberate in your terminal",
		Long: `council is a terminal client for an LLM Council backend.

Each question is answered by every council model (Stage 1), the answers are
anonymized and peer-ranked (Stage 2), and a chairman model synthesizes the
final answer (Stage 3).

Examples:
  council chat                        # start a new deliberation
  council chat -c 6f1c...             # resume a stored conversation
  council view conv.json --watch      # follow a conversation file
  council export conv.json -o ./out   # write a Markdown transcript
  council list                        # list stored conversations
  council init                        # interactive first-run setup`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.council/config.toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, disabled")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "council backend URL")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Reason: err.Error(), Example: cmd.UseLine()}
	})

	root.AddCommand(
		a.chatCommand(),
		a.viewCommand(),
		a.exportCommand(),
		a.listCommand(),
		a.configCommand(),
		a.initCommand(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{runProgram: runProgram}
	if err := a.execute(ctx, newRootCommand(a)); err != nil {
		DisplayError(os.Stderr, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// execute runs root and closes the log afterwards. Cobra skips post-run
// hooks when a command fails, so the close cannot live there.
func (a *app) execute(ctx context.Context, root *cobra.Command) error {
	defer a.teardown()
	return root.ExecuteContext(ctx)
}

// =============================================================================
// SETUP
// =============================================================================

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return &ConfigError{Path: a.configPath, Err: err}
	}

	if a.backend != "" {
		cfg.BackendURL = a.backend
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Err: err}
	}

	openLog := a.openLog
	if openLog == nil {
		openLog = logging.New
	}
	log, closer, err := openLog(cfg.Log)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: logging disabled: %v\n", err)
	}

	a.cfg = cfg
	a.log = log
	a.logCloser = closer

	a.log.Debug().
		Str("command", cmd.CommandPath()).
		Str("backend", cfg.BackendURL).
		Msg("starting")
	return nil
}

func (a *app) teardown() {
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.LoadFromPath(a.configPath)
	}
	return config.Load()
}

// resolvedConfigPath returns the file "config set" writes to.
func (a *app) resolvedConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ConfigPath()
}

// =============================================================================
// COLLABORATORS
// =============================================================================

func (a *app) client() *council.Client {
	return council.NewClient(a.cfg.BackendURL, council.WithLogger(a.log))
}

func (a *app) sink() *export.FileSink {
	return export.NewFileSink(a.cfg.Export.Dir, a.cfg.Export.OpenAfterExport)
}

func runProgram(m tea.Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
