// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "github.com/jeranaias/parley-tui/internal/model"

// Credentials is the body of /auth/login and /auth/register.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by /auth/login and /auth/register.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ChatRequest is the body of /chat and /chat/stream. An empty SessionID
// starts a new conversation.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the single-shot reply from /chat.
type ChatResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// HistoryResponse is returned by GET /chat/history/{session_id}.
type HistoryResponse struct {
	SessionID string          `json:"session_id"`
	Messages  []model.Message `json:"messages"`
}

// SessionsResponse is returned by GET /chat/sessions.
type SessionsResponse struct {
	Sessions []model.SessionItem `json:"sessions"`
}

// AckResponse is the acknowledgement returned by DELETE /chat/history.
type AckResponse struct {
	Message string `json:"message"`
}

// errorResponse is the error body shape. FastAPI-style backends send either
// a string or a list of validation entries under "detail".
type errorResponse struct {
	Detail any `json:"detail"`
}
