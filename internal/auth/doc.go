// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth owns the durable bearer token and the authentication state of
// the client.
//
// The token lives in a FileTokenStore (~/.parley/token by default). A Session
// drives the loading/authenticated/anonymous state machine on top of an
// api.Client:
//
//	store := auth.NewFileTokenStore(path)
//	client := api.NewClient(url).WithTokenStore(store)
//	sess := auth.NewSession(client, logger)
//	if err := sess.Bootstrap(ctx); err != nil { ... }
//	if sess.State() == auth.StateAuthenticated { ... }
package auth
