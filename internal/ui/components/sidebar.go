// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/util"
)

// Sidebar labels.
const (
	UntitledSession = "新对话"
	NewChatLabel    = "+ 新对话"
	NoSessions      = "暂无对话历史"
	AccountActive   = "已激活"
	AccountInactive = "未激活"
)

// DefaultSidebarWidth is the sidebar width including its border.
const DefaultSidebarWidth = 28

// =============================================================================
// SIDEBAR
// =============================================================================

// Sidebar lists the user's sessions. Row 0 is the "new chat" entry; rows
// 1..n are sessions in list order.
type Sidebar struct {
	theme    *styles.Theme
	width    int
	height   int
	sessions []model.SessionItem
	activeID string
	cursor   int
	focused  bool
	user     *model.User
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme, width: DefaultSidebarWidth}
}

// SetSize sets the outer size.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Width returns the outer width.
func (s *Sidebar) Width() int {
	return s.width
}

// SetSessions replaces the list and keeps the cursor in range.
func (s *Sidebar) SetSessions(sessions []model.SessionItem) {
	s.sessions = sessions
	s.clampCursor()
}

// SetActive marks the session shown in the chat pane.
func (s *Sidebar) SetActive(id string) {
	s.activeID = id
}

// SetUser sets the footer account.
func (s *Sidebar) SetUser(user *model.User) {
	s.user = user
}

// SetFocused toggles keyboard focus.
func (s *Sidebar) SetFocused(focused bool) {
	s.focused = focused
}

// Focused reports keyboard focus.
func (s *Sidebar) Focused() bool {
	return s.focused
}

// MoveUp moves the cursor up one row.
func (s *Sidebar) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// MoveDown moves the cursor down one row.
func (s *Sidebar) MoveDown() {
	if s.cursor < len(s.sessions) {
		s.cursor++
	}
}

// Cursor returns the selected row.
func (s *Sidebar) Cursor() int {
	return s.cursor
}

// Selected returns the session under the cursor. ok is false on the "new
// chat" row.
func (s *Sidebar) Selected() (model.SessionItem, bool) {
	if s.cursor == 0 || s.cursor > len(s.sessions) {
		return model.SessionItem{}, false
	}
	return s.sessions[s.cursor-1], true
}

func (s *Sidebar) clampCursor() {
	if s.cursor > len(s.sessions) {
		s.cursor = len(s.sessions)
	}
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	style := s.theme.Sidebar
	if s.focused {
		style = s.theme.SidebarFocused
	}
	inner := s.width - style.GetHorizontalFrameSize()
	if inner < 4 {
		inner = 4
	}

	var rows []string
	rows = append(rows, s.row(0, s.theme.SidebarNewChat.Render(NewChatLabel), inner), "")

	if len(s.sessions) == 0 {
		rows = append(rows, s.theme.SessionEmpty.Render(NoSessions))
	}
	for i, item := range s.sessions {
		title := util.PadWidth(item.TitleOr(UntitledSession), inner-2)
		marker := "  "
		st := s.theme.SessionItem
		if item.ID == s.activeID && s.activeID != "" {
			marker = "> "
			st = s.theme.SessionItemActive
		}
		rows = append(rows, s.row(i+1, st.Render(marker+title), inner))
	}

	footer := s.footer(inner)
	body := strings.Join(rows, "\n")
	if s.height > 0 {
		avail := s.height - lipgloss.Height(footer)
		lines := strings.Split(body, "\n")
		if len(lines) > avail && avail > 0 {
			lines = s.window(lines, avail)
		}
		for len(lines) < avail {
			lines = append(lines, "")
		}
		body = strings.Join(lines, "\n")
	}

	return style.Width(s.width - style.GetHorizontalBorderSize()).Render(body + "\n" + footer)
}

// row highlights the cursor row when focused.
func (s *Sidebar) row(index int, content string, width int) string {
	if s.focused && index == s.cursor {
		return s.theme.SessionItemSelected.Width(width).Render(content)
	}
	return content
}

// window keeps the cursor row visible when the list is taller than avail.
func (s *Sidebar) window(lines []string, avail int) []string {
	// Session rows start at line 2 after the "new chat" row and a blank.
	cursorLine := 0
	if s.cursor > 0 {
		cursorLine = s.cursor + 1
	}
	start := 0
	if cursorLine >= avail {
		start = cursorLine - avail + 1
	}
	return lines[start : start+avail]
}

func (s *Sidebar) footer(width int) string {
	if s.user == nil {
		return s.theme.UserFooter.Width(width).Render("")
	}
	badge := s.theme.BadgeActive.Render(AccountActive)
	if !s.user.IsActive {
		badge = s.theme.BadgeInactive.Render(AccountInactive)
	}
	email := util.TruncateWidth(s.user.Email, width)
	return s.theme.UserFooter.Width(width).Render(email + "\n" + badge)
}
