// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/util"
)

// Brand is the application name shown in the header.
const Brand = "Parley"

// Header is the top line of the chat screen.
type Header struct {
	theme *styles.Theme
	width int
	title string
	email string
}

// NewHeader creates a header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{theme: theme}
}

// SetWidth sets the rendering width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetTitle sets the active session title. Empty means a new conversation.
func (h *Header) SetTitle(title string) {
	h.title = title
}

// SetEmail sets the signed-in user shown on the right.
func (h *Header) SetEmail(email string) {
	h.email = email
}

// View renders the header.
func (h *Header) View() string {
	title := h.title
	if title == "" {
		title = UntitledSession
	}

	left := h.theme.HeaderBrand.Render(Brand) + "  " + h.theme.HeaderTitle.Render(title)
	right := h.theme.HeaderSubtitle.Render(h.email)

	inner := h.width - h.theme.Header.GetHorizontalFrameSize()
	if inner <= 0 {
		return h.theme.Header.Render(left)
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Drop the email first, then shorten the title.
		right = ""
		gap = inner - lipgloss.Width(left)
		if gap < 0 {
			avail := inner - lipgloss.Width(Brand) - 2
			left = h.theme.HeaderBrand.Render(Brand) + "  " +
				h.theme.HeaderTitle.Render(util.TruncateWidth(title, max(avail, 1)))
			gap = 0
		}
	}
	return h.theme.Header.Width(h.width).Render(left + strings.Repeat(" ", max(gap, 0)) + right)
}
