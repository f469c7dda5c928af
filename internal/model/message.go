// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the API client,
// the conversation controller and the UI.
package model

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single chat message. The JSON shape matches the backend's
// history payload.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message. An empty content
// string is the in-flight placeholder used while a reply streams in.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// IsUser returns true if this is a user message.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant returns true if this is an assistant message.
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// =============================================================================
// SLICE HELPERS
// =============================================================================

// ReplaceAt returns a copy of msgs with the element at index i replaced.
// The input slice is never written to. Out-of-range indexes return a copy
// of the input unchanged.
func ReplaceAt(msgs []Message, i int, msg Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	if i >= 0 && i < len(out) {
		out[i] = msg
	}
	return out
}

// RemoveAt returns a copy of msgs without the element at index i.
func RemoveAt(msgs []Message, i int) []Message {
	if i < 0 || i >= len(msgs) {
		out := make([]Message, len(msgs))
		copy(out, msgs)
		return out
	}
	out := make([]Message, 0, len(msgs)-1)
	out = append(out, msgs[:i]...)
	return append(out, msgs[i+1:]...)
}

// Append returns a copy of msgs with extra appended.
func Append(msgs []Message, extra ...Message) []Message {
	out := make([]Message, 0, len(msgs)+len(extra))
	out = append(out, msgs...)
	return append(out, extra...)
}
