// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the parley TUI.

All colors use Lip Gloss AdaptiveColor so the same palette works on light
and dark terminals.

# Color System (colors.go)

  - Purple - assistant messages and selections
  - Cyan - brand color, user highlights, focused elements
  - Emerald - online status and active accounts
  - Amber - busy status and warnings
  - Rose - errors and inactive accounts

# Theme (theme.go)

NewTheme resolves the configured theme name ("auto", "dark" or "light")
against the terminal and builds every style the screens use:

	theme := styles.NewTheme(cfg.UI.Theme)
	title := theme.HeaderTitle.Render("Parley")

The resolved background also picks the glamour style used for assistant
replies (see Theme.GlamourStyle).
*/
package styles
