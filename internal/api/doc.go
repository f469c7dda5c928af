// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the chat assistant backend.
//
// Every call is made against the server URL plus the fixed "/api" prefix and
// carries "Authorization: Bearer <token>" whenever the client holds a token.
// The token lives inside the Client and only changes through SetToken,
// ClearToken and RestoreToken; there is no package-level client.
//
// # Key Types
//
//   - Client: request/response calls for auth, chat, history and sessions
//   - Stream: lazy, non-restartable iterator over a /chat/stream response
//   - Event: tagged stream event (Content, SessionAssigned or Done)
//   - LineDecoder: splits incoming bytes into complete lines, carrying
//     partial lines across reads
//   - APIError, NetworkError, StreamError: the error taxonomy
//
// # Usage
//
//	client := api.NewClient("http://127.0.0.1:8000").
//	    WithLogger(logger).
//	    WithTokenStore(store)
//
//	stream, err := client.StreamMessage(ctx, "hello", "")
//	if err != nil {
//	    // fall back to client.SendMessage
//	}
//	defer stream.Close()
//	for {
//	    ev, err := stream.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
package api
