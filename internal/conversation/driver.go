// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
)

// Backend is the part of api.Client the chat screen uses.
type Backend interface {
	StreamMessage(ctx context.Context, message, sessionID string) (*api.Stream, error)
	SendMessage(ctx context.Context, message, sessionID string) (*api.ChatResponse, error)
	ChatHistory(ctx context.Context, sessionID string) (*api.HistoryResponse, error)
	ClearChatHistory(ctx context.Context, sessionID string) (*api.AckResponse, error)
	Sessions(ctx context.Context) ([]model.SessionItem, error)
}

// Fallback performs the single-shot call for a send whose stream failed,
// with the same message and session as the stream.
func Fallback(ctx context.Context, backend Backend, t Ticket) (*api.ChatResponse, error) {
	return backend.SendMessage(ctx, t.Message, t.SessionID)
}

// =============================================================================
// DRIVER
// =============================================================================

// Driver runs controller operations synchronously. It backs the line-mode
// commands; the TUI issues the same calls as bubbletea commands instead.
type Driver struct {
	ctrl    *Controller
	backend Backend
	logger  *zap.Logger
}

// NewDriver creates a driver with a fresh controller.
func NewDriver(backend Backend, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		ctrl:    NewController(logger),
		backend: backend,
		logger:  logger,
	}
}

// Controller exposes the state being driven.
func (d *Driver) Controller() *Controller {
	return d.ctrl
}

// Send streams a reply to content, calling onEvent for every applied event.
// If the stream cannot be opened or breaks, the fallback call is made once;
// its error is returned after the error notice has been applied.
func (d *Driver) Send(ctx context.Context, content string, onEvent func(api.Event)) error {
	t, err := d.ctrl.StartSend(content)
	if err != nil {
		return err
	}

	stream, err := d.backend.StreamMessage(ctx, t.Message, t.SessionID)
	if err != nil {
		return d.fallback(ctx, t, err)
	}
	defer stream.Close()

	for {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			d.ctrl.CompleteStream(t)
			return nil
		}
		if err != nil {
			return d.fallback(ctx, t, err)
		}
		if !d.ctrl.ApplyEvent(t, ev) {
			return nil
		}
		if onEvent != nil {
			onEvent(ev)
		}
		if ev.Kind == api.EventDone {
			return nil
		}
	}
}

func (d *Driver) fallback(ctx context.Context, t Ticket, cause error) error {
	d.logger.Debug("stream failed, using single-shot chat", zap.Error(cause))
	resp, err := Fallback(ctx, d.backend, t)
	d.ctrl.ApplyFallback(t, resp, err)
	if err != nil {
		d.logger.Warn("fallback chat failed", zap.Error(err))
	}
	return err
}

// SelectSession makes id active and loads its history.
func (d *Driver) SelectSession(ctx context.Context, id string) error {
	t := d.ctrl.BeginSelect(id)
	hist, err := d.backend.ChatHistory(ctx, id)
	if err != nil {
		return err
	}
	d.ctrl.ApplyHistory(t, hist.Messages)
	return nil
}

// Continue makes id the active session without loading its history, so the
// next Send continues it.
func (d *Driver) Continue(id string) {
	d.ctrl.BeginSelect(id)
}

// ClearHistory deletes a session on the server and drops it locally.
func (d *Driver) ClearHistory(ctx context.Context, id string) error {
	if _, err := d.backend.ClearChatHistory(ctx, id); err != nil {
		return err
	}
	d.ctrl.ApplyCleared(id)
	return nil
}

// LoadSessions replaces the session list with the server's.
func (d *Driver) LoadSessions(ctx context.Context) error {
	sessions, err := d.backend.Sessions(ctx)
	if err != nil {
		return err
	}
	d.ctrl.SetSessions(sessions)
	return nil
}

// NewChat starts a new conversation.
func (d *Driver) NewChat() {
	d.ctrl.NewChat()
}
