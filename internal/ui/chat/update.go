// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.ctrl.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case streamOpenedMsg:
		return m.handleStreamOpened(msg)

	case streamEventMsg:
		return m.handleStreamEvent(msg)

	case streamEndedMsg:
		return m.handleStreamEnded(msg)

	case fallbackDoneMsg:
		if m.ctrl.ApplyFallback(msg.ticket, msg.resp, msg.err) && msg.err != nil {
			m.logger.Warn("fallback chat failed", zap.Error(msg.err))
		}
		m.refresh()
		return m, m.checkUnauthorized(msg.err)

	case historyLoadedMsg:
		if msg.err != nil {
			if m.ctrl.IsCurrent(msg.ticket) {
				m.status.SetNotice(api.UserMessage(msg.err))
			}
			return m, m.checkUnauthorized(msg.err)
		}
		m.ctrl.ApplyHistory(msg.ticket, msg.messages)
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil

	case sessionsLoadedMsg:
		if msg.err != nil {
			m.status.SetNotice(api.UserMessage(msg.err))
			return m, m.checkUnauthorized(msg.err)
		}
		m.ctrl.SetSessions(msg.sessions)
		m.refresh()
		return m, nil

	case historyClearedMsg:
		if msg.err != nil {
			m.status.SetNotice(api.UserMessage(msg.err))
			return m, m.checkUnauthorized(msg.err)
		}
		m.ctrl.ApplyCleared(msg.id)
		m.refresh()
		return m, nil
	}

	// cursor blink
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// checkUnauthorized signs out when the server rejected the token.
func (m Model) checkUnauthorized(err error) tea.Cmd {
	if err != nil && api.IsUnauthorized(err) {
		return logoutCmd
	}
	return nil
}

// =============================================================================
// STREAM HANDLING
// =============================================================================

func (m Model) handleStreamOpened(msg streamOpenedMsg) (tea.Model, tea.Cmd) {
	if !m.ctrl.IsCurrent(msg.ticket) {
		if msg.stream != nil {
			msg.stream.Close()
		}
		return m, nil
	}
	if msg.err != nil {
		m.logger.Debug("stream open failed, using single-shot chat", zap.Error(msg.err))
		return m, fallbackCmd(m.ctx, m.backend, msg.ticket)
	}
	return m, readStreamCmd(msg.ticket, msg.stream)
}

func (m Model) handleStreamEvent(msg streamEventMsg) (tea.Model, tea.Cmd) {
	if !m.ctrl.ApplyEvent(msg.ticket, msg.event) {
		msg.stream.Close()
		return m, nil
	}
	m.refresh()
	if msg.event.Kind == api.EventDone {
		msg.stream.Close()
		return m, nil
	}
	return m, readStreamCmd(msg.ticket, msg.stream)
}

func (m Model) handleStreamEnded(msg streamEndedMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		m.ctrl.CompleteStream(msg.ticket)
		m.refresh()
		return m, nil
	}
	if !m.ctrl.IsCurrent(msg.ticket) || !m.ctrl.Loading() {
		return m, nil
	}
	m.logger.Debug("stream failed, using single-shot chat", zap.Error(msg.err))
	return m, fallbackCmd(m.ctx, m.backend, msg.ticket)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Logout):
		return m, logoutCmd
	case key.Matches(msg, m.keys.NewChat):
		m.ctrl.NewChat()
		m.input.Reset()
		m.status.SetNotice("")
		m = m.setFocus(focusInput)
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, loadSessionsCmd(m.ctx, m.backend)
	case key.Matches(msg, m.keys.ToggleSidebar):
		m.showSidebar = !m.showSidebar
		m = m.setFocus(m.focus)
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.ToggleFocus):
		if m.focus == focusInput {
			m = m.setFocus(focusSidebar)
		} else {
			m = m.setFocus(focusInput)
		}
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.sidebar.MoveDown()
	case key.Matches(msg, m.keys.Submit):
		item, ok := m.sidebar.Selected()
		if !ok {
			m.ctrl.NewChat()
			m.input.Reset()
			m = m.setFocus(focusInput)
			m.refresh()
			return m, nil
		}
		return m.selectSession(item.ID)
	case key.Matches(msg, m.keys.Delete):
		item, ok := m.sidebar.Selected()
		if !ok {
			return m, nil
		}
		return m, clearHistoryCmd(m.ctx, m.backend, item.ID)
	}
	return m, nil
}

func (m Model) selectSession(id string) (tea.Model, tea.Cmd) {
	t := m.ctrl.BeginSelect(id)
	m.status.SetNotice("")
	m = m.setFocus(focusInput)
	m.refresh()
	return m, loadHistoryCmd(m.ctx, m.backend, t)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	}

	// Input is disabled while a reply is outstanding.
	if m.ctrl.Loading() {
		return m, nil
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.send(m.input.Value())
	}

	if len(m.ctrl.Messages()) == 0 && m.input.Value() == "" {
		if prompt, ok := components.QuickAction(msg.String()); ok {
			return m.send(prompt)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send starts a send of content.
func (m Model) send(content string) (tea.Model, tea.Cmd) {
	t, err := m.ctrl.StartSend(content)
	if err != nil {
		if !errors.Is(err, conversation.ErrEmptyMessage) {
			m.logger.Debug("send rejected", zap.Error(err))
		}
		return m, nil
	}
	m.input.Reset()
	m.status.SetNotice("")
	m.refresh()
	return m, tea.Batch(openStreamCmd(m.ctx, m.backend, t), m.spinner.Tick)
}
