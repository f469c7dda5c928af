// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/conversation"
)

const streamInterrupted = "[流式响应中断，以下为完整回复]"

type askData struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// HandleAsk sends one message and prints the reply as it streams.
func HandleAsk(env *Env, args Args) error {
	if strings.TrimSpace(args.Message) == "" {
		return ErrMissingArgument("message", `parley ask "你好"`)
	}
	if err := env.requireToken(); err != nil {
		return err
	}

	driver := conversation.NewDriver(env.Client, env.Logger)
	if args.SessionID != "" {
		driver.Continue(args.SessionID)
	}

	if args.JSON {
		reply, err := sendQuiet(env, driver, args.Message)
		if err != nil {
			return err
		}
		data := askData{SessionID: driver.Controller().SessionID(), Reply: reply}
		return NewJSONResponse("ask", data).WriteTo(env.Out)
	}

	if err := streamReply(env, driver, args.Message); err != nil {
		return err
	}
	if id := driver.Controller().SessionID(); id != "" {
		env.status(args, "%s\n", DimStyle.Render("会话: "+id))
	}
	return nil
}

func sendQuiet(env *Env, driver *conversation.Driver, message string) (string, error) {
	if err := driver.Send(env.Ctx, message, nil); err != nil {
		return "", err
	}
	return lastReply(driver), nil
}

// streamReply sends message, printing content as it arrives. When the
// stream broke and the fallback produced the reply, the full reply is
// printed after a marker.
func streamReply(env *Env, driver *conversation.Driver, message string) error {
	var streamed strings.Builder
	err := driver.Send(env.Ctx, message, func(ev api.Event) {
		if ev.Kind == api.EventContent {
			streamed.WriteString(ev.Text)
			env.printf("%s", ev.Text)
		}
	})
	if err != nil {
		if streamed.Len() > 0 {
			env.printf("\n")
		}
		return err
	}

	reply := lastReply(driver)
	if reply != streamed.String() {
		if streamed.Len() > 0 {
			env.printf("\n%s\n", WarningStyle.Render(streamInterrupted))
		}
		env.printf("%s", reply)
	}
	env.printf("\n")
	return nil
}

func lastReply(driver *conversation.Driver) string {
	msgs := driver.Controller().Messages()
	if len(msgs) == 0 || !msgs[len(msgs)-1].IsAssistant() {
		return ""
	}
	return msgs[len(msgs)-1].Content
}
