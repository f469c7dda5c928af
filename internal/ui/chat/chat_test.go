// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/conversation"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// TEST BACKEND
// =============================================================================

type trackedBody struct {
	io.Reader
	closed chan struct{}
	once   sync.Once
}

func (b *trackedBody) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

type fakeBackend struct {
	mu          sync.Mutex
	body        func() io.Reader
	streamErr   error
	chatResp    *api.ChatResponse
	chatErr     error
	history     map[string][]model.Message
	sessions    []model.SessionItem
	sessionsErr error
	cleared     []string
	chatCalls   []string
	lastBody    *trackedBody
}

func frames(lines ...string) func() io.Reader {
	return func() io.Reader {
		var b strings.Builder
		for _, l := range lines {
			b.WriteString("data: " + l + "\n\n")
		}
		return strings.NewReader(b.String())
	}
}

func (f *fakeBackend) StreamMessage(_ context.Context, _, _ string) (*api.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	f.lastBody = &trackedBody{Reader: f.body(), closed: make(chan struct{})}
	return api.NewStream(f.lastBody), nil
}

func (f *fakeBackend) SendMessage(_ context.Context, _, sessionID string) (*api.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls = append(f.chatCalls, sessionID)
	return f.chatResp, f.chatErr
}

func (f *fakeBackend) ChatHistory(_ context.Context, id string) (*api.HistoryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &api.HistoryResponse{SessionID: id, Messages: f.history[id]}, nil
}

func (f *fakeBackend) ClearChatHistory(_ context.Context, id string) (*api.AckResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, id)
	return &api.AckResponse{Message: "历史已清除"}, nil
}

func (f *fakeBackend) Sessions(context.Context) ([]model.SessionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, f.sessionsErr
}

var _ conversation.Backend = (*fakeBackend)(nil)

// =============================================================================
// HELPERS
// =============================================================================

func newTestModel(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	m := New(context.Background(), backend, styles.NewTheme(styles.ThemeDark), zaptest.NewLogger(t),
		Options{ShowSidebar: true})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// runCmd runs a command, giving up on ones that wait on a timer.
func runCmd(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// drain feeds the results of cmd back into the model until nothing is
// left. Messages meant for the parent are returned.
func drain(t *testing.T, m Model, cmd tea.Cmd) (Model, []tea.Msg) {
	t.Helper()
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runCmd(c).(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case LogoutRequestMsg, tea.QuitMsg:
			out = append(out, msg)
		default:
			next, nc := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nc)
		}
	}
	return m, out
}

func typeText(m Model, s string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func sendText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m = typeText(m, s)
	m, cmd := press(m, tea.KeyEnter)
	m, _ = drain(t, m, cmd)
	return m
}

// =============================================================================
// SEND
// =============================================================================

func TestSend_StreamsReply(t *testing.T) {
	backend := &fakeBackend{body: frames("session_id:s1", "你好", "，世界", "[DONE]")}
	m := newTestModel(t, backend)

	m = sendText(t, m, "hi")

	ctrl := m.Controller()
	require.Len(t, ctrl.Messages(), 2)
	assert.Equal(t, "hi", ctrl.Messages()[0].Content)
	assert.Equal(t, "你好，世界", ctrl.Messages()[1].Content)
	assert.Equal(t, "s1", ctrl.SessionID())
	require.Len(t, ctrl.Sessions(), 1)
	assert.Equal(t, "hi", ctrl.Sessions()[0].TitleOr(""))
	assert.False(t, m.Loading())
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "你好，世界")
	assert.Empty(t, backend.chatCalls)
}

func TestSend_EOFWithoutDone(t *testing.T) {
	backend := &fakeBackend{body: frames("partial")}
	m := newTestModel(t, backend)

	m = sendText(t, m, "hi")

	assert.False(t, m.Loading())
	assert.Equal(t, "partial", m.Controller().Messages()[1].Content)
	assert.Empty(t, m.Controller().SessionID())
	assert.Empty(t, backend.chatCalls)
}

func TestSend_FallbackWhenOpenFails(t *testing.T) {
	backend := &fakeBackend{
		streamErr: &api.APIError{Status: 500, Detail: "down"},
		chatResp:  &api.ChatResponse{Message: "ok", SessionID: "s2"},
	}
	m := newTestModel(t, backend)

	m = sendText(t, m, "hi")

	ctrl := m.Controller()
	require.Len(t, ctrl.Messages(), 2)
	assert.Equal(t, "ok", ctrl.Messages()[1].Content)
	assert.Equal(t, "s2", ctrl.SessionID())
	assert.Equal(t, []string{""}, backend.chatCalls)
	assert.False(t, m.Loading())
}

func TestSend_FallbackWhenStreamBreaks(t *testing.T) {
	backend := &fakeBackend{
		body: func() io.Reader {
			return io.MultiReader(
				strings.NewReader("data: session_id:s1\n\ndata: par\n\n"),
				iotest.ErrReader(errors.New("connection reset")),
			)
		},
		chatResp: &api.ChatResponse{Message: "full reply", SessionID: "s1"},
	}
	m := newTestModel(t, backend)

	m = sendText(t, m, "hi")

	ctrl := m.Controller()
	require.Len(t, ctrl.Messages(), 2)
	assert.Equal(t, "full reply", ctrl.Messages()[1].Content)
	assert.Len(t, ctrl.Sessions(), 1)
	assert.Equal(t, []string{""}, backend.chatCalls, "fallback reuses the stream's session")
}

func TestSend_BothPathsFail(t *testing.T) {
	backend := &fakeBackend{
		streamErr: errors.New("no stream"),
		chatErr:   errors.New("no chat"),
	}
	m := newTestModel(t, backend)

	m = sendText(t, m, "hi")

	ctrl := m.Controller()
	require.Len(t, ctrl.Messages(), 2)
	assert.Equal(t, conversation.ErrorNotice, ctrl.Messages()[1].Content)
	assert.False(t, m.Loading())
}

func TestSend_InputDisabledWhileLoading(t *testing.T) {
	backend := &fakeBackend{body: frames("ok", "[DONE]")}
	m := newTestModel(t, backend)

	m = typeText(m, "first")
	m, _ = press(m, tea.KeyEnter)
	require.True(t, m.Loading())

	m = typeText(m, "second")
	assert.Empty(t, m.input.Value())
	m, cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Len(t, m.Controller().Messages(), 2)
}

func TestSend_BlankIgnored(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m = typeText(m, "   ")
	m, cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Empty(t, m.Controller().Messages())
}

func TestQuickActionSendsPrompt(t *testing.T) {
	backend := &fakeBackend{body: frames("[DONE]")}
	m := newTestModel(t, backend)
	assert.Contains(t, m.View(), components.WelcomeTitle)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	m, _ = drain(t, next.(Model), cmd)

	require.NotEmpty(t, m.Controller().Messages())
	assert.Equal(t, components.QuickActions[1], m.Controller().Messages()[0].Content)
}

func TestQuickActionOnlyOnEmptyInput(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m = typeText(m, "a")
	m = typeText(m, "1")
	assert.Equal(t, "a1", m.input.Value())
	assert.Empty(t, m.Controller().Messages())
}

// =============================================================================
// STALE RESULTS
// =============================================================================

func TestNewChat_DropsInFlightStream(t *testing.T) {
	backend := &fakeBackend{body: frames("session_id:s1", "late", "[DONE]")}
	m := newTestModel(t, backend)

	m = typeText(m, "hi")
	m, sendCmd := press(m, tea.KeyEnter)
	m, _ = press(m, tea.KeyCtrlN)
	assert.False(t, m.Loading())

	m, _ = drain(t, m, sendCmd)

	assert.Empty(t, m.Controller().Messages())
	assert.Empty(t, m.Controller().SessionID())
	assert.Empty(t, m.Controller().Sessions())
	select {
	case <-backend.lastBody.closed:
	default:
		t.Fatal("stale stream was not closed")
	}
}

func TestSelect_LateHistoryDropped(t *testing.T) {
	backend := &fakeBackend{
		sessions: []model.SessionItem{model.NewSessionItem("a", "A"), model.NewSessionItem("b", "B")},
		history: map[string][]model.Message{
			"a": {model.NewUserMessage("from a")},
			"b": {model.NewUserMessage("from b")},
		},
	}
	m := newTestModel(t, backend)
	m, _ = drain(t, m, m.Init())

	next, first := m.selectSession("a")
	m = next.(Model)
	next, second := m.selectSession("b")
	m = next.(Model)

	m, _ = drain(t, m, second)
	m, _ = drain(t, m, first)

	require.Len(t, m.Controller().Messages(), 1)
	assert.Equal(t, "from b", m.Controller().Messages()[0].Content)
	assert.Equal(t, "b", m.Controller().SessionID())
}

// =============================================================================
// SIDEBAR
// =============================================================================

func TestSidebar_SelectAndDelete(t *testing.T) {
	backend := &fakeBackend{
		sessions: []model.SessionItem{model.NewSessionItem("s1", "第一个"), {ID: "s2"}},
		history: map[string][]model.Message{
			"s1": {model.NewUserMessage("q"), model.NewAssistantMessage("a")},
		},
	}
	m := newTestModel(t, backend)
	m, _ = drain(t, m, m.Init())
	require.Len(t, m.Controller().Sessions(), 2)
	assert.Contains(t, m.View(), "第一个")
	assert.Contains(t, m.View(), components.UntitledSession)

	m, _ = press(m, tea.KeyTab)
	assert.Equal(t, focusSidebar, m.focus)
	m, _ = press(m, tea.KeyDown)
	m, cmd := press(m, tea.KeyEnter)
	m, _ = drain(t, m, cmd)

	assert.Equal(t, "s1", m.Controller().SessionID())
	assert.Len(t, m.Controller().Messages(), 2)
	assert.Equal(t, focusInput, m.focus)

	m, _ = press(m, tea.KeyTab)
	m, cmd = press(m, tea.KeyCtrlD)
	m, _ = drain(t, m, cmd)

	assert.Equal(t, []string{"s1"}, backend.cleared)
	require.Len(t, m.Controller().Sessions(), 1)
	assert.Equal(t, "s2", m.Controller().Sessions()[0].ID)
	assert.Empty(t, m.Controller().SessionID())
	assert.Empty(t, m.Controller().Messages())
}

func TestSidebar_NewChatRow(t *testing.T) {
	backend := &fakeBackend{body: frames("session_id:s1", "ok", "[DONE]")}
	m := newTestModel(t, backend)
	m = sendText(t, m, "hi")
	require.Equal(t, "s1", m.Controller().SessionID())

	m, _ = press(m, tea.KeyTab)
	m, _ = press(m, tea.KeyEnter)

	assert.Empty(t, m.Controller().SessionID())
	assert.Len(t, m.Controller().Sessions(), 1)
	assert.Equal(t, focusInput, m.focus)
}

func TestSidebar_ToggleAndNarrow(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	assert.Contains(t, m.View(), components.NewChatLabel)

	m, _ = press(m, tea.KeyCtrlB)
	assert.NotContains(t, m.View(), components.NewChatLabel)

	m, _ = press(m, tea.KeyCtrlB)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m = next.(Model)
	assert.NotContains(t, m.View(), components.NewChatLabel)

	m, _ = press(m, tea.KeyTab)
	assert.Equal(t, focusInput, m.focus, "hidden sidebar cannot take focus")
}

// =============================================================================
// ACCOUNT
// =============================================================================

func TestLogoutKey(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	_, cmd := press(m, tea.KeyCtrlL)
	require.NotNil(t, cmd)
	assert.Equal(t, LogoutRequestMsg{}, cmd())
}

func TestUnauthorizedRequestsLogout(t *testing.T) {
	backend := &fakeBackend{sessionsErr: &api.APIError{Status: 401, Detail: "Could not validate credentials"}}
	m := newTestModel(t, backend)

	m, out := drain(t, m, m.Init())

	assert.Contains(t, out, tea.Msg(LogoutRequestMsg{}))
	assert.Contains(t, m.View(), "Could not validate credentials")
}

func TestSetUserAndReset(t *testing.T) {
	backend := &fakeBackend{body: frames("session_id:s1", "ok", "[DONE]")}
	m := newTestModel(t, backend)
	m = m.SetUser(&model.User{ID: "1", Email: "me@example.com", IsActive: true}, "opaque")

	view := m.View()
	assert.Contains(t, view, "me@example.com")
	assert.Contains(t, view, components.AccountActive)

	m = sendText(t, m, "hi")
	m = m.Reset()
	assert.Empty(t, m.Controller().Messages())
	assert.Empty(t, m.Controller().Sessions())
}
