// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// QuickActions are the starter prompts offered on an empty conversation.
// Number keys 1-4 send them.
var QuickActions = []string{
	"你好，请介绍一下你自己",
	"现在几点了？",
	"帮我计算 123 * 456",
	"你能做什么？",
}

// WelcomeText is shown above the quick actions.
const (
	WelcomeTitle = "有什么可以帮你的吗？"
	WelcomeHint  = "输入消息开始对话，或按数字键选择："
)

// QuickAction returns the prompt bound to a key, if any.
func QuickAction(key string) (string, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return "", false
	}
	i := int(key[0] - '1')
	if i >= len(QuickActions) {
		return "", false
	}
	return QuickActions[i], true
}

// RenderWelcome renders the empty-conversation screen centered in width x height.
func RenderWelcome(theme *styles.Theme, width, height int) string {
	var b strings.Builder
	b.WriteString(theme.WelcomeTitle.Render(WelcomeTitle))
	b.WriteString("\n\n")
	b.WriteString(theme.WelcomeInfo.Render(WelcomeHint))
	b.WriteString("\n\n")
	for i, prompt := range QuickActions {
		key := theme.QuickActionKey.Render(fmt.Sprintf("%d", i+1))
		b.WriteString(theme.QuickAction.Render(key + "  " + prompt))
		b.WriteString("\n")
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
}
