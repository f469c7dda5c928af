// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable view pieces of the parley TUI.

Components are plain structs with setters and a View method. They hold no
application state of their own; the chat screen pushes the controller's
state into them before rendering.

  - Header: brand, session title and the signed-in email
  - Sidebar: "new chat" entry, the session list and the user footer
  - MessageRenderer: user and assistant bubbles; replies go through glamour
  - StatusBar: online/thinking indicator, token expiry and key hints
  - QuickActions: starter prompts on an empty conversation
*/
package components
