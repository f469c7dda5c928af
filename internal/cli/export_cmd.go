// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/jeranaias/parley-tui/internal/export"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/components"
)

type exportData struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format"`
	Path      string `json:"path"`
	Messages  int    `json:"messages"`
}

// HandleExport writes a conversation to a Markdown, JSON or HTML file.
func HandleExport(env *Env, args Args) error {
	if args.SessionID == "" {
		return ErrMissingArgument("session id", "parley export <id> --format html")
	}
	format := args.Format
	if format == "" {
		format = "md"
	}
	opts := export.DefaultOptions()
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return ErrUnsupportedFormat(format, export.Formats)
	}

	return OutputJSON(env.Out, args.JSON, "export", func() (any, error) {
		hist, err := fetchHistory(env, args.SessionID)
		if err != nil {
			return nil, err
		}
		title := components.UntitledSession
		if sessions, err := env.Client.Sessions(env.Ctx); err == nil {
			for _, s := range sessions {
				if s.ID == args.SessionID {
					title = s.TitleOr(title)
				}
			}
		}

		tr := model.NewTranscript(args.SessionID, title, hist.Messages)
		var path string
		if args.Output != "" {
			content, err := exporter.Export(tr)
			if err != nil {
				return nil, err
			}
			path, err = export.WriteTo(args.Output, content)
			if err != nil {
				return nil, err
			}
		} else {
			path, err = export.WriteFile(tr, exporter, opts)
			if err != nil {
				return nil, err
			}
		}

		if !args.JSON {
			env.status(args, "%s 已导出 %d 条消息\n", SuccessStyle.Render("[OK]"), len(tr.Messages))
			env.printf("%s\n", path)
		}
		return exportData{SessionID: args.SessionID, Format: format, Path: path, Messages: len(tr.Messages)}, nil
	})
}
