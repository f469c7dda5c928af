// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat screen of the parley TUI.

The screen is a Bubble Tea model wrapped around a conversation.Controller.
Every network call runs as a tea.Cmd and reports back with a message that
carries the conversation.Ticket it was issued with, so results from an
abandoned send or history load are dropped by the controller.

# Streaming (commands.go)

A send opens the stream with openStreamCmd. Each streamEventMsg applies one
event and schedules the next read; a failed open or read schedules the
single-shot fallback call instead. A stream whose ticket went stale is
closed on its next message and never read again.

# Layout (view.go)

	+---------+------------------------------+
	| sidebar | header                       |
	|         | messages (viewport)          |
	|         | input                        |
	+---------+------------------------------+
	| status bar                             |
	+----------------------------------------+

The sidebar hides on narrow terminals and with Ctrl+B.

# Key Bindings (keys.go)

	Enter        send, or open the selected session
	Tab          move focus between sidebar and input
	Ctrl+N       new conversation
	Ctrl+D       delete the selected session's history
	Ctrl+R       reload the session list
	Ctrl+L       sign out
	1-4          quick actions on an empty conversation
*/
package chat
