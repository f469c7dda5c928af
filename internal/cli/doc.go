// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-mode commands of
// parley.
//
// # Key Types
//
//   - Command: enumeration of the available commands
//   - Args: parsed global and command-specific flags
//   - Env: the collaborators a command runs against (config, API client,
//     output streams, prompts)
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(env, args)
//	case cli.CmdSessions:
//	    err = cli.HandleSessions(env, args)
//	// ... other commands
//	}
//
// # Commands Overview
//
// Account: login, register, logout, whoami.
// Conversations: sessions, history, clear, ask, chat, export.
// Tooling: devserver, config, version.
//
// Listing commands accept --json for machine-readable output.
package cli
