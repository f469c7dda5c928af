// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/util"
)

const (
	sessionIDColumn    = 36
	sessionTitleColumn = 40
)

// =============================================================================
// SESSIONS
// =============================================================================

// HandleSessions lists the signed-in user's conversations, newest first.
func HandleSessions(env *Env, args Args) error {
	return OutputJSON(env.Out, args.JSON, "sessions", func() (any, error) {
		if err := env.requireToken(); err != nil {
			return nil, err
		}
		sessions, err := env.Client.Sessions(env.Ctx)
		if err != nil {
			return nil, err
		}
		if args.JSON {
			return sessions, nil
		}

		if len(sessions) == 0 {
			env.printf("%s\n", DimStyle.Render(components.NoSessions))
			return sessions, nil
		}
		width := len(strconv.Itoa(len(sessions)))
		for i, s := range sessions {
			env.printf("%s  %s  %s\n",
				DimStyle.Render(fmt.Sprintf("%*d", width, i+1)),
				ValueStyle.Render(util.PadWidth(s.ID, sessionIDColumn)),
				util.TruncateWidth(s.TitleOr(components.UntitledSession), sessionTitleColumn),
			)
		}
		return sessions, nil
	})
}

// =============================================================================
// HISTORY
// =============================================================================

// HandleHistory prints a conversation. Assistant replies are rendered as
// markdown on a terminal.
func HandleHistory(env *Env, args Args) error {
	if args.SessionID == "" {
		return ErrMissingArgument("session id", "parley history <id>")
	}
	return OutputJSON(env.Out, args.JSON, "history", func() (any, error) {
		hist, err := fetchHistory(env, args.SessionID)
		if err != nil {
			return nil, err
		}
		if args.JSON {
			return hist, nil
		}
		if len(hist.Messages) == 0 {
			env.printf("%s\n", DimStyle.Render("该会话没有消息"))
			return hist, nil
		}
		printTranscript(env, hist.Messages)
		return hist, nil
	})
}

func fetchHistory(env *Env, id string) (*api.HistoryResponse, error) {
	if err := env.requireToken(); err != nil {
		return nil, err
	}
	return env.Client.ChatHistory(env.Ctx, id)
}

func printTranscript(env *Env, msgs []model.Message) {
	for i, msg := range msgs {
		if i > 0 {
			env.printf("\n")
		}
		label := components.AssistantLabel
		content := env.render(msg.Content)
		if msg.IsUser() {
			label = components.UserLabel
			content = msg.Content
		}
		env.printf("%s\n%s\n", RoleStyle.Render(label), content)
	}
}

// =============================================================================
// CLEAR
// =============================================================================

// HandleClear deletes a conversation on the server.
func HandleClear(env *Env, args Args) error {
	if args.SessionID == "" {
		return ErrMissingArgument("session id", "parley clear <id>")
	}
	if err := env.requireToken(); err != nil {
		return err
	}
	ack, err := env.Client.ClearChatHistory(env.Ctx, args.SessionID)
	if err != nil {
		return err
	}
	env.status(args, "%s %s\n", SuccessStyle.Render("[OK]"), ack.Message)
	return nil
}
