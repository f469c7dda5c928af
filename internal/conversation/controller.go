// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/util"
)

// ErrorNotice replaces the assistant placeholder when both the stream and
// the fallback call fail.
const ErrorNotice = "抱歉，发送消息时出现错误。请稍后重试。"

// TitleRunes is the length of a session title derived from its first message.
const TitleRunes = 30

var (
	// ErrBusy is returned by StartSend while a send is outstanding.
	ErrBusy = errors.New("a message is already being sent")

	// ErrEmptyMessage is returned by StartSend for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// Ticket identifies one send or history load.
type Ticket struct {
	Generation uint64
	// Message is the text sent to the server.
	Message string
	// SessionID is the session at the time the ticket was issued. Both the
	// stream and the fallback call use it.
	SessionID string
}

// pendingSend is the bookkeeping for the send in flight.
type pendingSend struct {
	ticket      Ticket
	placeholder int
	acc         strings.Builder
	// sessionSeen is set after the first session control frame.
	sessionSeen bool
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the chat screen state. It is not safe for concurrent use;
// the TUI only touches it from Update.
type Controller struct {
	messages   []model.Message
	sessions   []model.SessionItem
	sessionID  string
	loading    bool
	generation uint64
	pending    *pendingSend
	logger     *zap.Logger
}

// NewController creates an empty controller.
func NewController(logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{logger: logger}
}

// Messages returns the visible messages. The slice is replaced, never
// mutated, so callers may hold on to it.
func (c *Controller) Messages() []model.Message { return c.messages }

// Sessions returns the session list, newest first.
func (c *Controller) Sessions() []model.SessionItem { return c.sessions }

// SessionID returns the active session, or "" for a new conversation.
func (c *Controller) SessionID() string { return c.sessionID }

// Loading reports whether a send is outstanding.
func (c *Controller) Loading() bool { return c.loading }

// Generation returns the current generation.
func (c *Controller) Generation() uint64 { return c.generation }

// IsCurrent reports whether results for t would still be applied.
func (c *Controller) IsCurrent(t Ticket) bool {
	return t.Generation == c.generation
}

// ActiveTitle returns the title of the active session, if it is listed.
func (c *Controller) ActiveTitle() string {
	for _, s := range c.sessions {
		if s.ID == c.sessionID {
			return s.TitleOr("")
		}
	}
	return ""
}

// =============================================================================
// SEND
// =============================================================================

// StartSend appends the user message and an empty assistant placeholder and
// marks the controller as loading.
func (c *Controller) StartSend(content string) (Ticket, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return Ticket{}, ErrEmptyMessage
	}
	if c.loading {
		return Ticket{}, ErrBusy
	}

	c.messages = model.Append(c.messages, model.NewUserMessage(text), model.NewAssistantMessage(""))
	c.loading = true
	c.generation++

	t := Ticket{Generation: c.generation, Message: text, SessionID: c.sessionID}
	c.pending = &pendingSend{ticket: t, placeholder: len(c.messages) - 1}
	return t, nil
}

// pendingFor returns the in-flight send for t, or nil when t is stale.
func (c *Controller) pendingFor(t Ticket, what string) *pendingSend {
	if c.pending == nil || t.Generation != c.generation || c.pending.ticket.Generation != t.Generation {
		c.logger.Debug("dropping stale update",
			zap.String("kind", what),
			zap.Uint64("ticket", t.Generation),
			zap.Uint64("current", c.generation),
		)
		return nil
	}
	return c.pending
}

// ApplyEvent applies one stream event. It reports whether the event was
// applied; stale events are ignored.
func (c *Controller) ApplyEvent(t Ticket, ev api.Event) bool {
	p := c.pendingFor(t, ev.Kind.String())
	if p == nil {
		return false
	}

	switch ev.Kind {
	case api.EventSessionAssigned:
		if !p.sessionSeen {
			p.sessionSeen = true
			c.adoptSession(ev.SessionID, t.Message)
		}
	case api.EventContent:
		p.acc.WriteString(ev.Text)
		c.messages = model.ReplaceAt(c.messages, p.placeholder, model.NewAssistantMessage(p.acc.String()))
	case api.EventDone:
		c.finish()
	}
	return true
}

// CompleteStream finishes a send whose stream ended without a Done frame.
func (c *Controller) CompleteStream(t Ticket) bool {
	if c.pendingFor(t, "eof") == nil {
		return false
	}
	c.finish()
	return true
}

// ApplyFallback applies the result of the single-shot call made after the
// stream failed. On success the placeholder is replaced by the response; on
// failure it becomes ErrorNotice.
func (c *Controller) ApplyFallback(t Ticket, resp *api.ChatResponse, err error) bool {
	p := c.pendingFor(t, "fallback")
	if p == nil {
		return false
	}

	if err != nil || resp == nil {
		c.messages = model.ReplaceAt(c.messages, p.placeholder, model.NewAssistantMessage(ErrorNotice))
		c.finish()
		return true
	}

	c.messages = model.RemoveAt(c.messages, p.placeholder)
	c.messages = model.Append(c.messages, model.NewAssistantMessage(resp.Message))
	if !p.sessionSeen && resp.SessionID != "" {
		p.sessionSeen = true
		c.adoptSession(resp.SessionID, t.Message)
	}
	c.finish()
	return true
}

// adoptSession makes id the active session when none is known and lists it
// first, titled after the message that started it.
func (c *Controller) adoptSession(id, firstMessage string) {
	if id == "" || c.sessionID != "" {
		return
	}
	c.sessionID = id
	item := model.NewSessionItem(id, util.FirstRunes(firstMessage, TitleRunes))
	c.sessions = append([]model.SessionItem{item}, c.sessions...)
}

func (c *Controller) finish() {
	c.pending = nil
	c.loading = false
}

// =============================================================================
// SESSIONS
// =============================================================================

// bump invalidates every outstanding ticket.
func (c *Controller) bump() {
	c.generation++
	c.pending = nil
	c.loading = false
}

// NewChat starts an empty, session-less conversation. The session list is
// kept.
func (c *Controller) NewChat() {
	c.bump()
	c.sessionID = ""
	c.messages = nil
}

// BeginSelect makes id the active session and returns the ticket its
// history must be applied with.
func (c *Controller) BeginSelect(id string) Ticket {
	c.bump()
	c.sessionID = id
	c.messages = nil
	return Ticket{Generation: c.generation, SessionID: id}
}

// ApplyHistory replaces the visible messages with a fetched history.
func (c *Controller) ApplyHistory(t Ticket, msgs []model.Message) bool {
	if t.Generation != c.generation || t.SessionID != c.sessionID {
		c.logger.Debug("dropping stale history", zap.String("session", t.SessionID))
		return false
	}
	c.messages = model.Append(nil, msgs...)
	return true
}

// ApplyCleared removes the first session with id after the server deleted
// its history. It reports whether id was the active session, which is then
// reset.
func (c *Controller) ApplyCleared(id string) bool {
	for i, s := range c.sessions {
		if s.ID == id {
			out := make([]model.SessionItem, 0, len(c.sessions)-1)
			out = append(out, c.sessions[:i]...)
			c.sessions = append(out, c.sessions[i+1:]...)
			break
		}
	}
	if id == "" || id != c.sessionID {
		return false
	}
	c.NewChat()
	return true
}

// SetSessions replaces the session list.
func (c *Controller) SetSessions(sessions []model.SessionItem) {
	c.sessions = append([]model.SessionItem(nil), sessions...)
}

// Reset drops all state, as on logout.
func (c *Controller) Reset() {
	c.NewChat()
	c.sessions = nil
}
