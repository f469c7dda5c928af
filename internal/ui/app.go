// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui holds the root Bubble Tea model, which routes between the
// sign-in screens and the chat screen.
package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/ui/authform"
	"github.com/jeranaias/parley-tui/internal/ui/chat"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

const (
	loadingText = "正在验证登录状态..."
	expiredText = "登录已过期，请重新登录"
)

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// State is the screen being shown.
type State int

const (
	StateLoading State = iota // Validating a stored token
	StateAuth                 // Login or register form
	StateChat                 // Chat view
)

// authOp names the operation behind an authResultMsg.
type authOp int

const (
	opBootstrap authOp = iota
	opResume
	opLogin
	opRegister
)

// authResultMsg reports a finished session operation.
type authResultMsg struct {
	op  authOp
	err error
}

// loggedOutMsg reports a finished logout.
type loggedOutMsg struct {
	err error
}

// TokenChangedMsg tells the model the stored token changed on disk.
type TokenChangedMsg struct{}

// Deps are the collaborators of the root model.
type Deps struct {
	Session *auth.Session
	Backend conversation.Backend
	// Token returns the bearer token currently in use.
	Token  func() string
	Theme  *styles.Theme
	Logger *zap.Logger
	Chat   chat.Options
}

// Model is the root Bubble Tea model.
type Model struct {
	state State

	ctx     context.Context
	session *auth.Session
	token   func() string
	theme   *styles.Theme
	logger  *zap.Logger

	width  int
	height int

	spinner   spinner.Model
	form      authform.Form
	chatModel chat.Model

	// email of the user the chat screen was built for
	email string
}

// NewModel creates the root model in StateLoading.
func NewModel(ctx context.Context, deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	token := deps.Token
	if token == nil {
		token = func() string { return "" }
	}
	return &Model{
		state:     StateLoading,
		ctx:       ctx,
		session:   deps.Session,
		token:     token,
		theme:     deps.Theme,
		logger:    logger,
		spinner:   components.NewSpinner(deps.Theme),
		form:      authform.New(deps.Theme),
		chatModel: chat.New(ctx, deps.Backend, deps.Theme, logger, deps.Chat),
	}
}

// State returns the current screen.
func (m *Model) State() State {
	return m.state
}

// Init validates the stored token.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runAuth(opBootstrap, nil))
}

// runAuth performs a session operation off the update loop.
func (m *Model) runAuth(op authOp, submit *authform.SubmitMsg) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		var err error
		switch op {
		case opBootstrap:
			err = session.Bootstrap(ctx)
		case opResume:
			err = session.Resume(ctx)
		case opLogin:
			err = session.Login(ctx, submit.Email, submit.Password)
		case opRegister:
			err = session.Register(ctx, submit.Email, submit.Password, submit.Confirm)
		}
		return authResultMsg{op: op, err: err}
	}
}

func (m *Model) logout() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return loggedOutMsg{err: session.Logout(ctx)}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.form = m.form.SetSize(msg.Width, msg.Height)
		return m, m.forwardToChat(msg)

	case tea.KeyMsg:
		if m.state == StateLoading {
			if msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			return m, nil
		}

	case authResultMsg:
		return m.handleAuthResult(msg)

	case authform.SubmitMsg:
		op := opLogin
		if msg.Mode == authform.ModeRegister {
			op = opRegister
		}
		return m, m.runAuth(op, &msg)

	case chat.LogoutRequestMsg:
		return m, m.logout()

	case loggedOutMsg:
		if msg.err != nil {
			m.logger.Warn("logout did not clear the stored token", zap.Error(msg.err))
		}
		m.showAuth("")
		return m, nil

	case TokenChangedMsg:
		if m.state == StateLoading {
			return m, nil
		}
		return m, m.runAuth(opResume, nil)
	}

	switch m.state {
	case StateLoading:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case StateAuth:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	default:
		return m, m.forwardToChat(msg)
	}
}

func (m *Model) forwardToChat(msg tea.Msg) tea.Cmd {
	newChatModel, cmd := m.chatModel.Update(msg)
	m.chatModel = newChatModel.(chat.Model)
	return cmd
}

func (m *Model) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	if m.session.State() == auth.StateAuthenticated {
		return m, m.showChat()
	}

	if msg.err != nil {
		m.logger.Info("authentication failed", zap.Error(msg.err))
	}

	switch msg.op {
	case opLogin, opRegister:
		m.form = m.form.SetError(api.UserMessage(msg.err))
		return m, nil
	case opBootstrap, opResume:
		notice := ""
		if api.IsUnauthorized(msg.err) {
			notice = expiredText
		} else if msg.err != nil {
			notice = api.UserMessage(msg.err)
		}
		m.showAuth(notice)
	}
	return m, nil
}

// showChat enters the chat screen for the signed-in user. The conversation
// is kept when the same user is confirmed again.
func (m *Model) showChat() tea.Cmd {
	user := m.session.User()
	if user == nil {
		m.showAuth("")
		return nil
	}
	entering := m.state != StateChat || user.Email != m.email
	if entering {
		m.chatModel = m.chatModel.Reset()
	}
	m.chatModel = m.chatModel.SetUser(user, m.token())
	m.email = user.Email
	m.state = StateChat
	m.form = m.form.Reset()

	if !entering {
		return nil
	}
	return tea.Batch(
		m.chatModel.Init(),
		m.forwardToChat(tea.WindowSizeMsg{Width: m.width, Height: m.height}),
	)
}

// showAuth returns to the login form with an optional notice.
func (m *Model) showAuth(notice string) {
	if m.state == StateChat {
		m.chatModel = m.chatModel.Reset()
	}
	m.email = ""
	m.state = StateAuth
	m.form = m.form.Reset().SetMode(authform.ModeLogin)
	if notice != "" {
		m.form = m.form.SetError(notice)
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the current state.
func (m *Model) View() string {
	switch m.state {
	case StateLoading:
		text := m.spinner.View() + " " + m.theme.InfoStyle.Render(loadingText)
		if m.width == 0 {
			return text
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, text)
	case StateAuth:
		return m.form.View()
	default:
		return m.chatModel.View()
	}
}
