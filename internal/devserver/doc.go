// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver is an in-memory implementation of the chat backend's
// HTTP API. It serves `parley devserver` for local UI work and is the
// backend fixture for client and controller tests.
//
// Users, sessions and histories live in memory. Tokens are HS256 JWTs and
// passwords are bcrypt digests. Replies come from a Responder (an echo by
// default) and are streamed a few runes per frame. Faults can be injected
// to exercise the client's fallback path.
package devserver
