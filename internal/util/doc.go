// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across parley.
//
//   - AtomicWriteFile: temp file + fsync + rename, used for the token file
//     and exported transcripts
//   - TruncateRunes / FirstRunes: rune-safe truncation for session titles
//   - TruncateWidth / PadWidth: display-width-aware truncation for the sidebar
package util
