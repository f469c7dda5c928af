// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. APIError matches ErrUnauthorized and ErrNotFound through
// errors.Is based on its status code.
var (
	// ErrUnauthorized indicates the backend rejected the bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoBody indicates a streaming response arrived without a readable body.
	ErrNoBody = errors.New("response has no readable body")

	// ErrStreamAborted indicates the server ended a stream with an [ERROR] frame.
	ErrStreamAborted = errors.New("stream aborted by server")
)

// unknownErrorDetail is used when a failed response body is not JSON.
const unknownErrorDetail = "Unknown error"

// =============================================================================
// API ERROR
// =============================================================================

// APIError is a non-success HTTP status. Detail is the human-readable text
// taken from the body's "detail" field, or a generic status message.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Detail
}

// Is reports whether the error matches one of the status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// genericDetail is the message used when the body has no detail field.
func genericDetail(status int) string {
	return fmt.Sprintf("HTTP error! status: %d", status)
}

// =============================================================================
// NETWORK ERROR
// =============================================================================

// NetworkError means the request could not be sent or the response could
// not be read.
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// =============================================================================
// STREAM ERROR
// =============================================================================

// StreamError is a failure after a stream was opened. Received counts the
// content events delivered before the failure.
type StreamError struct {
	Received int
	Err      error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Received > 0 {
		return fmt.Sprintf("stream error after %d chunks: %v", e.Received, e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// HELPERS
// =============================================================================

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// UserMessage returns the text to show inline for an auth or request error.
// API errors surface their detail; everything else gets a short summary.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "无法连接到服务器，请检查网络"
	}
	return err.Error()
}
