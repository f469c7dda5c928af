// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/model"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// streamOpenedMsg reports the result of opening /chat/stream.
type streamOpenedMsg struct {
	ticket conversation.Ticket
	stream *api.Stream
	err    error
}

// streamEventMsg carries one parsed event.
type streamEventMsg struct {
	ticket conversation.Ticket
	stream *api.Stream
	event  api.Event
}

// streamEndedMsg reports the end of a stream. A nil err means the body
// ended cleanly without a Done frame.
type streamEndedMsg struct {
	ticket conversation.Ticket
	err    error
}

// fallbackDoneMsg carries the single-shot chat result.
type fallbackDoneMsg struct {
	ticket conversation.Ticket
	resp   *api.ChatResponse
	err    error
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// historyLoadedMsg carries a session's history.
type historyLoadedMsg struct {
	ticket   conversation.Ticket
	messages []model.Message
	err      error
}

// sessionsLoadedMsg carries the session list.
type sessionsLoadedMsg struct {
	sessions []model.SessionItem
	err      error
}

// historyClearedMsg reports a deleted session.
type historyClearedMsg struct {
	id  string
	err error
}

// =============================================================================
// OUTGOING MESSAGES
// =============================================================================

// LogoutRequestMsg asks the parent model to sign out.
type LogoutRequestMsg struct{}
