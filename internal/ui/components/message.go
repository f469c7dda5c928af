// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Message labels.
const (
	UserLabel      = "我"
	AssistantLabel = "助手"
	ThinkingText   = "正在思考..."
)

// maxCachedRenders bounds the markdown render cache.
const maxCachedRenders = 256

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// MessageRenderer draws chat bubbles. User text is shown literally and
// right-aligned; assistant replies are rendered as markdown with glamour
// when enabled.
type MessageRenderer struct {
	theme    *styles.Theme
	markdown bool
	style    string
	width    int

	md    *glamour.TermRenderer
	cache map[string]string
}

// NewMessageRenderer creates a renderer using the theme's glamour style.
func NewMessageRenderer(theme *styles.Theme, markdown bool) *MessageRenderer {
	return &MessageRenderer{
		theme:    theme,
		markdown: markdown,
		style:    theme.GlamourStyle(),
		width:    80,
		cache:    make(map[string]string),
	}
}

// WithGlamourStyle overrides the glamour standard style ("dark", "light",
// "notty", ...).
func (r *MessageRenderer) WithGlamourStyle(style string) *MessageRenderer {
	r.style = style
	r.md = nil
	r.cache = make(map[string]string)
	return r
}

// SetWidth sets the pane width. Changing it drops cached renders.
func (r *MessageRenderer) SetWidth(width int) {
	if width == r.width {
		return
	}
	r.width = width
	r.md = nil
	r.cache = make(map[string]string)
}

// bubbleWidth is the widest a bubble may be, border included.
func (r *MessageRenderer) bubbleWidth() int {
	w := r.width * 4 / 5
	if w < 20 {
		w = r.width
	}
	return w
}

// RenderAll renders a conversation. When loading, an empty trailing
// assistant message shows the thinking indicator with spinner in front.
func (r *MessageRenderer) RenderAll(msgs []model.Message, loading bool, spinner string) string {
	parts := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		pending := loading && i == len(msgs)-1 && msg.IsAssistant() && msg.Content == ""
		parts = append(parts, r.Render(msg, pending, spinner))
	}
	return strings.Join(parts, "\n\n")
}

// Render renders one message.
func (r *MessageRenderer) Render(msg model.Message, pending bool, spinner string) string {
	inner := r.bubbleWidth() - r.theme.UserBubble.GetHorizontalFrameSize()
	if inner < 1 {
		inner = 1
	}

	if msg.IsUser() {
		label := r.theme.RoleLabel.Render(UserLabel)
		text := lipgloss.NewStyle().Width(min(lipgloss.Width(msg.Content), inner)).Render(msg.Content)
		bubble := r.theme.UserBubble.Render(text)
		return lipgloss.PlaceHorizontal(r.width, lipgloss.Right, label+"\n"+bubble)
	}

	label := r.theme.RoleLabel.Render(AssistantLabel)
	var body string
	switch {
	case pending:
		body = strings.TrimSpace(spinner + " " + r.theme.Thinking.Render(ThinkingText))
	default:
		body = r.renderMarkdown(msg.Content, inner)
	}
	return label + "\n" + r.theme.AssistantBubble.Render(body)
}

// renderMarkdown renders a reply body, falling back to wrapped plain text.
func (r *MessageRenderer) renderMarkdown(content string, width int) string {
	plain := lipgloss.NewStyle().Width(width).Render(content)
	if !r.markdown || strings.TrimSpace(content) == "" {
		return plain
	}
	if out, ok := r.cache[content]; ok {
		return out
	}

	if r.md == nil {
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return plain
		}
		r.md = md
	}
	out, err := r.md.Render(content)
	if err != nil {
		return plain
	}
	out = strings.Trim(out, "\n")

	if len(r.cache) >= maxCachedRenders {
		r.cache = make(map[string]string)
	}
	r.cache[content] = out
	return out
}
