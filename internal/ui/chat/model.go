// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

const (
	inputPlaceholder = "输入消息..."
	inputCharLimit   = 4000

	// minSidebarWidth is the narrowest terminal that still shows the sidebar.
	minSidebarWidth = 72
)

// focusArea is the pane receiving keys.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// Options configures the chat screen.
type Options struct {
	ShowSidebar    bool
	RenderMarkdown bool
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat screen.
type Model struct {
	ctx     context.Context
	backend conversation.Backend
	ctrl    *conversation.Controller
	logger  *zap.Logger
	theme   *styles.Theme
	keys    KeyMap

	header   *components.Header
	sidebar  *components.Sidebar
	status   *components.StatusBar
	renderer *components.MessageRenderer
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	user        *model.User
	focus       focusArea
	showSidebar bool
	width       int
	height      int
	ready       bool
}

// New creates the chat screen. Network calls made from it use ctx.
func New(ctx context.Context, backend conversation.Backend, theme *styles.Theme, logger *zap.Logger, opts Options) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = inputPlaceholder
	ti.CharLimit = inputCharLimit
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Focus()

	keys := DefaultKeyMap()
	status := components.NewStatusBar(theme)
	status.SetShortcuts(keys.statusHints())

	return Model{
		ctx:         ctx,
		backend:     backend,
		ctrl:        conversation.NewController(logger),
		logger:      logger,
		theme:       theme,
		keys:        keys,
		header:      components.NewHeader(theme),
		sidebar:     components.NewSidebar(theme),
		status:      status,
		renderer:    components.NewMessageRenderer(theme, opts.RenderMarkdown).WithGlamourStyle(theme.GlamourStyle()),
		viewport:    viewport.New(0, 0),
		input:       ti,
		spinner:     components.NewSpinner(theme),
		showSidebar: opts.ShowSidebar,
	}
}

// Init loads the session list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadSessionsCmd(m.ctx, m.backend))
}

// Controller exposes the conversation state.
func (m Model) Controller() *conversation.Controller {
	return m.ctrl
}

// SetUser shows the signed-in account and the token's expiry.
func (m Model) SetUser(user *model.User, token string) Model {
	m.user = user
	m.sidebar.SetUser(user)
	if user != nil {
		m.header.SetEmail(user.Email)
	} else {
		m.header.SetEmail("")
	}
	exp, ok := auth.TokenExpiry(token)
	m.status.SetTokenExpiry(exp, ok)
	return m
}

// Reset drops the conversation and session list, as on logout.
func (m Model) Reset() Model {
	m.ctrl.Reset()
	m.input.Reset()
	m.status.SetNotice("")
	m = m.setFocus(focusInput)
	m.refresh()
	return m
}

// Loading reports whether a reply is outstanding.
func (m Model) Loading() bool {
	return m.ctrl.Loading()
}

func (m Model) sidebarVisible() bool {
	return m.showSidebar && m.width >= minSidebarWidth
}

func (m Model) setFocus(f focusArea) Model {
	if f == focusSidebar && !m.sidebarVisible() {
		f = focusInput
	}
	m.focus = f
	m.sidebar.SetFocused(f == focusSidebar)
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	return m
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout recomputes component sizes after a resize or a sidebar toggle.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	mainWidth := m.width
	if m.sidebarVisible() {
		m.sidebar.SetSize(components.DefaultSidebarWidth, m.height-1)
		mainWidth -= m.sidebar.Width()
	}

	m.header.SetWidth(mainWidth)
	m.status.SetWidth(m.width)
	m.input.Width = max(mainWidth-6, 10)

	// header, bordered input and status bar
	chrome := 1 + 2 + 1
	m.viewport.Width = mainWidth
	m.viewport.Height = max(m.height-chrome, 1)
	m.renderer.SetWidth(mainWidth)
	m.ready = true
	m.refresh()
}

// refresh copies controller state into the components.
func (m *Model) refresh() {
	m.sidebar.SetSessions(m.ctrl.Sessions())
	m.sidebar.SetActive(m.ctrl.SessionID())
	m.header.SetTitle(m.ctrl.ActiveTitle())
	m.status.SetLoading(m.ctrl.Loading(), m.spinner.View())

	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderer.RenderAll(m.ctrl.Messages(), m.ctrl.Loading(), m.spinner.View()))
	if atBottom || m.ctrl.Loading() {
		m.viewport.GotoBottom()
	}
}
