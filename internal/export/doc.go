// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes session transcripts to disk.
//
// # Supported Formats
//
//   - Markdown: the messages as they were written, with a front-matter header
//   - JSON: the model.Transcript structure, indented
//   - HTML: a standalone page; message bodies are rendered as markdown and
//     fenced code is syntax highlighted
//
// # Usage
//
//	exp, err := export.ForFormat("html", export.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	path, err := export.WriteFile(transcript, exp, opts)
package export
