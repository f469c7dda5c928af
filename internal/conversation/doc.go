// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the state of the chat screen: the visible
// messages, the session list, the active session and the in-flight send.
//
// Controller is a set of reducers with no I/O. Each send and each history
// load is stamped with a Ticket carrying the controller's generation; any
// result delivered with an outdated ticket is dropped. NewChat, session
// selection and clearing the active session advance the generation.
//
// Driver runs the same reducers synchronously against a Backend for the
// line-mode commands. The TUI schedules the identical steps as bubbletea
// commands.
package conversation
