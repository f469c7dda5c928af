// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/conversation"
)

// openStreamCmd opens the stream for a send.
func openStreamCmd(ctx context.Context, backend conversation.Backend, t conversation.Ticket) tea.Cmd {
	return func() tea.Msg {
		stream, err := backend.StreamMessage(ctx, t.Message, t.SessionID)
		return streamOpenedMsg{ticket: t, stream: stream, err: err}
	}
}

// readStreamCmd reads the next event. Only one read per stream is ever in
// flight.
func readStreamCmd(t conversation.Ticket, stream *api.Stream) tea.Cmd {
	return func() tea.Msg {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return streamEndedMsg{ticket: t}
		}
		if err != nil {
			return streamEndedMsg{ticket: t, err: err}
		}
		return streamEventMsg{ticket: t, stream: stream, event: ev}
	}
}

// fallbackCmd makes the single-shot call for a failed stream.
func fallbackCmd(ctx context.Context, backend conversation.Backend, t conversation.Ticket) tea.Cmd {
	return func() tea.Msg {
		resp, err := conversation.Fallback(ctx, backend, t)
		return fallbackDoneMsg{ticket: t, resp: resp, err: err}
	}
}

// loadHistoryCmd fetches a session's messages.
func loadHistoryCmd(ctx context.Context, backend conversation.Backend, t conversation.Ticket) tea.Cmd {
	return func() tea.Msg {
		hist, err := backend.ChatHistory(ctx, t.SessionID)
		if err != nil {
			return historyLoadedMsg{ticket: t, err: err}
		}
		return historyLoadedMsg{ticket: t, messages: hist.Messages}
	}
}

// loadSessionsCmd fetches the session list.
func loadSessionsCmd(ctx context.Context, backend conversation.Backend) tea.Cmd {
	return func() tea.Msg {
		sessions, err := backend.Sessions(ctx)
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

// clearHistoryCmd deletes a session.
func clearHistoryCmd(ctx context.Context, backend conversation.Backend, id string) tea.Cmd {
	return func() tea.Msg {
		_, err := backend.ClearChatHistory(ctx, id)
		return historyClearedMsg{id: id, err: err}
	}
}

func logoutCmd() tea.Msg {
	return LogoutRequestMsg{}
}
