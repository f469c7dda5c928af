// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// USER
// =============================================================================

// User is the authenticated account as reported by GET /auth/me.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// =============================================================================
// SESSION ITEM
// =============================================================================

// SessionItem is a server-side conversation. Title is nil until either the
// server supplies one or the client derives it from the first message.
type SessionItem struct {
	ID    string  `json:"id"`
	Title *string `json:"title"`
}

// NewSessionItem creates a session item with a title.
func NewSessionItem(id, title string) SessionItem {
	return SessionItem{ID: id, Title: &title}
}

// TitleOr returns the session title, or fallback when it has none.
func (s SessionItem) TitleOr(fallback string) string {
	if s.Title == nil || *s.Title == "" {
		return fallback
	}
	return *s.Title
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a session's history packaged for export.
type Transcript struct {
	SessionID  string    `json:"session_id"`
	Title      string    `json:"title"`
	Messages   []Message `json:"messages"`
	ExportedAt time.Time `json:"exported_at"`
}

// NewTranscript builds a transcript stamped with the current time.
func NewTranscript(sessionID, title string, msgs []Message) *Transcript {
	return &Transcript{
		SessionID:  sessionID,
		Title:      title,
		Messages:   msgs,
		ExportedAt: time.Now(),
	}
}
