// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/config"
)

// Env is what a command runs against.
type Env struct {
	Ctx    context.Context
	Config *config.Config
	Client *api.Client
	Logger *zap.Logger
	Out    io.Writer
	Err    io.Writer
	Prompt Prompter
	// Markdown renders assistant text for the terminal. Nil prints it raw.
	Markdown func(string) string
}

// NewEnv creates an environment on the process's standard streams.
// Markdown is rendered only when stdout is a terminal.
func NewEnv(ctx context.Context, cfg *config.Config, client *api.Client, logger *zap.Logger) *Env {
	env := &Env{
		Ctx:    ctx,
		Config: cfg,
		Client: client,
		Logger: logger,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Prompt: NewTerminalPrompter(),
	}
	if IsStdoutTTY() && cfg.UI.RenderMarkdown {
		env.Markdown = NewMarkdownRenderer(GetTerminalWidth() - 4)
	}
	return env
}

// NewMarkdownRenderer returns a glamour renderer that falls back to the raw
// text when rendering fails.
func NewMarkdownRenderer(width int) func(string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s
		}
		return strings.Trim(out, "\n")
	}
}

func (e *Env) session() *auth.Session {
	return auth.NewSession(e.Client, e.Logger)
}

// requireToken loads the stored token, failing with ErrNotSignedIn when
// there is none.
func (e *Env) requireToken() error {
	ok, err := e.Client.RestoreToken()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotSignedIn
	}
	return nil
}

func (e *Env) render(s string) string {
	if e.Markdown == nil {
		return s
	}
	return e.Markdown(s)
}

func (e *Env) printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}

// status prints progress to stderr unless --quiet.
func (e *Env) status(args Args, format string, a ...any) {
	if args.Quiet {
		return
	}
	fmt.Fprintf(e.Err, format, a...)
}
