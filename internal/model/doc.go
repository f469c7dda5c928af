// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the API client,
// the conversation controller and the UI.
//
// # Key Types
//
//   - Message: a single chat message with a role and text content
//   - SessionItem: a server-side conversation as listed in the sidebar
//   - User: the authenticated account returned by /auth/me
//   - Transcript: a session's messages packaged for export
//
// Messages are values. The conversation controller never mutates a message
// in place; it replaces the slice element instead.
//
// # Usage
//
//	msgs := []model.Message{
//	    model.NewUserMessage("Hello!"),
//	    model.NewAssistantMessage(""),
//	}
//	msgs = model.ReplaceAt(msgs, 1, model.NewAssistantMessage("Hi there"))
package model
