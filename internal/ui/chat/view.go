// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return ""
	}

	var body string
	if len(m.ctrl.Messages()) == 0 && !m.ctrl.Loading() {
		body = components.RenderWelcome(m.theme, m.viewport.Width, m.viewport.Height)
	} else {
		body = m.viewport.View()
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		m.renderInput(m.viewport.Width),
	)
	if m.sidebarVisible() {
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
	}
	return lipgloss.JoinVertical(lipgloss.Left, main, m.status.View())
}

func (m Model) renderInput(width int) string {
	box := m.theme.InputContainer
	return box.Width(max(width-box.GetHorizontalBorderSize(), 1)).Render(m.input.View())
}
