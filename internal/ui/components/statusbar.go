// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Status texts.
const (
	StatusOnline   = "在线"
	StatusThinking = ThinkingText
	TokenExpired   = "令牌已过期"
)

// Shortcut is a key hint shown on the right of the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the bottom line of the chat screen.
type StatusBar struct {
	theme     *styles.Theme
	width     int
	loading   bool
	spinner   string
	expiry    time.Time
	hasExpiry bool
	notice    string
	shortcuts []Shortcut
	now       func() time.Time
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme, now: time.Now}
}

// SetWidth sets the rendering width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetLoading switches between the online and thinking indicators.
func (s *StatusBar) SetLoading(loading bool, spinner string) {
	s.loading = loading
	s.spinner = spinner
}

// SetTokenExpiry sets the expiry shown for the bearer token. ok=false hides it.
func (s *StatusBar) SetTokenExpiry(exp time.Time, ok bool) {
	s.expiry = exp
	s.hasExpiry = ok
}

// SetNotice shows a transient message, such as a failed history load.
// An empty notice clears it.
func (s *StatusBar) SetNotice(notice string) {
	s.notice = notice
}

// SetShortcuts sets the key hints.
func (s *StatusBar) SetShortcuts(shortcuts []Shortcut) {
	s.shortcuts = shortcuts
}

// SetClock replaces the time source for expiry display.
func (s *StatusBar) SetClock(now func() time.Time) {
	s.now = now
}

// View renders the status bar. Hints are dropped first when space runs out.
func (s *StatusBar) View() string {
	var status string
	if s.loading {
		status = strings.TrimSpace(s.spinner + " " + s.theme.StatusBusy.Render(StatusThinking))
	} else {
		status = s.theme.StatusOnline.Render(styles.StatusIndicators.Online + " " + StatusOnline)
	}

	left := []string{status}
	if s.hasExpiry {
		left = append(left, s.theme.ShortcutDesc.Render(s.expiryText()))
	}
	if s.notice != "" {
		left = append(left, s.theme.ErrorStyle.Render(s.notice))
	}
	leftText := strings.Join(left, "  ")

	var hints []string
	for _, sc := range s.shortcuts {
		hints = append(hints, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	rightText := strings.Join(hints, "  ")

	inner := s.width - s.theme.StatusBar.GetHorizontalFrameSize()
	if inner <= 0 {
		return s.theme.StatusBar.Render(leftText)
	}
	gap := inner - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if gap < 1 {
		return s.theme.StatusBar.Width(s.width).Render(leftText)
	}
	return s.theme.StatusBar.Width(s.width).Render(leftText + strings.Repeat(" ", gap) + rightText)
}

func (s *StatusBar) expiryText() string {
	now := s.now().Local()
	exp := s.expiry.Local()
	if !now.Before(exp) {
		return TokenExpired
	}
	if exp.Format("2006-01-02") == now.Format("2006-01-02") {
		return "令牌有效期至 " + exp.Format("15:04")
	}
	return "令牌有效期至 " + exp.Format("01-02 15:04")
}
