// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/util"
)

const chatHelp = `命令:
  /new             开始新对话
  /sessions        列出会话
  /switch <n|id>   切换到会话
  /history         显示当前会话
  /clear           删除当前会话
  /exit            退出`

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads REPL input.
type LineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI provides input history and line editing for line-mode chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor with history loaded from
// ~/.parley/chat_history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := config.ChatHistoryPath()
	if err != nil {
		historyFile = ""
	}
	c := &ChatCLI{line: line, historyFile: historyFile}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line; non-blank input is added to the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

func (c *ChatCLI) saveHistory() {
	if c.historyFile == "" || config.EnsureConfigDir() != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.saveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// HandleChat runs line-mode chat on the terminal.
func HandleChat(env *Env, args Args) error {
	if err := env.requireToken(); err != nil {
		return err
	}
	reader := NewChatCLI()
	defer reader.Close()
	return RunChat(env, args, reader)
}

// chatREPL is the state of one line-mode chat.
type chatREPL struct {
	env    *Env
	driver *conversation.Driver
	// listed is the last printed session list, for /switch <n>.
	listed []model.SessionItem
}

// RunChat reads messages from reader until /exit or end of input.
func RunChat(env *Env, args Args, reader LineReader) error {
	r := &chatREPL{env: env, driver: conversation.NewDriver(env.Client, env.Logger)}

	if err := r.driver.LoadSessions(env.Ctx); err != nil {
		return err
	}
	if args.SessionID != "" {
		if err := r.switchTo(args.SessionID); err != nil {
			return err
		}
	}
	if !args.Quiet {
		env.printf("%s\n", DimStyle.Render("输入消息开始对话，/help 查看命令，/exit 退出"))
	}

	for {
		input, err := reader.ReadInput(PromptStyle.Render("parley> "))
		if err != nil {
			// Ctrl+C, Ctrl+D and closed input all end the session.
			env.printf("\n")
			return nil
		}

		input = strings.TrimSpace(input)
		switch {
		case input == "":
			continue
		case input == "exit" || input == "quit":
			return nil
		case strings.HasPrefix(input, "/"):
			cont, err := r.command(input)
			if err != nil {
				DisplayError(env.Err, err, false)
				if api.IsUnauthorized(err) {
					return err
				}
			}
			if !cont {
				return nil
			}
		default:
			if err := streamReply(env, r.driver, input); err != nil {
				DisplayError(env.Err, err, false)
				if api.IsUnauthorized(err) {
					return err
				}
			}
		}
	}
}

// command runs a slash command and reports whether the REPL continues.
func (r *chatREPL) command(input string) (bool, error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	arg = strings.TrimSpace(arg)
	ctrl := r.driver.Controller()

	switch strings.ToLower(name) {
	case "exit", "quit", "q":
		return false, nil
	case "help", "h", "?":
		r.env.printf("%s\n", chatHelp)
	case "new":
		r.driver.NewChat()
		r.env.printf("%s\n", DimStyle.Render("已开始新对话"))
	case "sessions", "ls":
		if err := r.driver.LoadSessions(r.env.Ctx); err != nil {
			return true, err
		}
		r.printSessions()
	case "switch", "s":
		if arg == "" {
			return true, ErrMissingArgument("session", "/switch 1")
		}
		return true, r.switchTo(r.resolve(arg))
	case "history":
		if len(ctrl.Messages()) == 0 {
			r.env.printf("%s\n", DimStyle.Render("当前没有消息"))
			return true, nil
		}
		printTranscript(r.env, ctrl.Messages())
	case "clear":
		id := ctrl.SessionID()
		if id == "" {
			return true, errors.New("当前对话尚未保存")
		}
		if err := r.driver.ClearHistory(r.env.Ctx, id); err != nil {
			return true, err
		}
		r.env.printf("%s\n", DimStyle.Render("已删除会话 "+id))
	default:
		return true, &UsageError{Field: "command", Value: input, Reason: "unknown command", Example: "/help"}
	}
	return true, nil
}

// resolve maps a 1-based index from the last listing to a session id.
func (r *chatREPL) resolve(arg string) string {
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(r.listed) {
		return r.listed[n-1].ID
	}
	return arg
}

func (r *chatREPL) switchTo(id string) error {
	if err := r.driver.SelectSession(r.env.Ctx, id); err != nil {
		return err
	}
	title := components.UntitledSession
	for _, s := range r.driver.Controller().Sessions() {
		if s.ID == id {
			title = s.TitleOr(title)
		}
	}
	r.env.printf("%s\n", DimStyle.Render("已切换到: "+title))
	if msgs := r.driver.Controller().Messages(); len(msgs) > 0 {
		printTranscript(r.env, msgs)
	}
	return nil
}

func (r *chatREPL) printSessions() {
	r.listed = r.driver.Controller().Sessions()
	if len(r.listed) == 0 {
		r.env.printf("%s\n", DimStyle.Render(components.NoSessions))
		return
	}
	active := r.driver.Controller().SessionID()
	for i, s := range r.listed {
		marker := " "
		if s.ID == active {
			marker = "*"
		}
		r.env.printf("%s %2d  %s\n", marker, i+1,
			util.TruncateWidth(s.TitleOr(components.UntitledSession), sessionTitleColumn))
	}
}
