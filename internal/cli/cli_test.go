// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/devserver"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/components"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"show"},
			wantSub: "show",
		},
		{
			name:    "flag with value",
			args:    []string{"abc", "--format", "html"},
			wantSub: "abc",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "html", p.Flag("format"))
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"abc", "--output=out.md"},
			wantSub: "abc",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "out.md", p.Flag("output"))
			},
		},
		{
			name:    "short flag",
			args:    []string{"-s", "id-1", "hello"},
			wantSub: "hello",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "id-1", p.FlagAny("session", "s"))
			},
		},
		{
			name:    "bool flag keeps next positional",
			args:    []string{"--json", "abc"},
			wantSub: "abc",
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("json"))
				assert.False(t, p.HasFlag("abc"))
			},
		},
		{
			name:    "trailing flag is boolean",
			args:    []string{"abc", "--force"},
			wantSub: "abc",
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("force"))
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"--", "--not-a-flag", "x"},
			wantSub: "--not-a-flag",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, 2, p.PositionalCount())
				assert.False(t, p.HasFlag("not-a-flag"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, "json")
			assert.Equal(t, tt.wantSub, p.Subcommand())
			assert.Equal(t, tt.args, p.Raw())
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_EmptyArgs(t *testing.T) {
	p := NewArgParser(nil)
	assert.Equal(t, "", p.Subcommand())
	assert.Equal(t, "", p.Positional(3))
	assert.Empty(t, p.PositionalFrom(1))
	assert.Equal(t, "md", p.FlagOrDefault("format", "md"))
	assert.Equal(t, "", JoinPositionalArgs(p, 0))
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		check   func(*testing.T, Args)
	}{
		{"no args starts tui", nil, CmdTUI, nil},
		{"login with email", []string{"login", "--email", "a@b.com"}, CmdLogin, func(t *testing.T, a Args) {
			assert.Equal(t, "a@b.com", a.Email)
		}},
		{"signup alias", []string{"signup"}, CmdRegister, nil},
		{"me alias", []string{"me", "--json"}, CmdWhoami, func(t *testing.T, a Args) {
			assert.True(t, a.JSON)
		}},
		{"history id", []string{"show", "s-1"}, CmdHistory, func(t *testing.T, a Args) {
			assert.Equal(t, "s-1", a.SessionID)
		}},
		{"history json before id", []string{"history", "--json", "s-1"}, CmdHistory, func(t *testing.T, a Args) {
			assert.Equal(t, "s-1", a.SessionID)
			assert.True(t, a.JSON)
		}},
		{"ask joins words", []string{"ask", "--session", "s-1", "你好", "世界"}, CmdAsk, func(t *testing.T, a Args) {
			assert.Equal(t, "s-1", a.SessionID)
			assert.Equal(t, "你好 世界", a.Message)
		}},
		{"export defaults to md", []string{"export", "s-1", "-o", "out.md"}, CmdExport, func(t *testing.T, a Args) {
			assert.Equal(t, "md", a.Format)
			assert.Equal(t, "out.md", a.Output)
		}},
		{"global flags anywhere", []string{"-q", "sessions", "--server=http://x:1"}, CmdSessions, func(t *testing.T, a Args) {
			assert.True(t, a.Quiet)
			assert.Equal(t, "http://x:1", a.ServerURL)
		}},
		{"server flag with value", []string{"--server", "http://x:2", "-v", "ls"}, CmdSessions, func(t *testing.T, a Args) {
			assert.True(t, a.Verbose)
			assert.Equal(t, "http://x:2", a.ServerURL)
		}},
		{"devserver addr", []string{"dev", "--addr", ":9000"}, CmdDevServer, func(t *testing.T, a Args) {
			assert.Equal(t, ":9000", a.Addr)
		}},
		{"config subcommand", []string{"config", "path"}, CmdConfig, func(t *testing.T, a Args) {
			assert.Equal(t, "path", a.Subcommand)
		}},
		{"version flag", []string{"--version"}, CmdVersion, nil},
		{"unknown command", []string{"frobnicate"}, CmdHelp, func(t *testing.T, a Args) {
			assert.Equal(t, "frobnicate", a.Subcommand)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			assert.Equal(t, tt.wantCmd, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	assert.Contains(t, buf.String(), "parley ask")
	assert.Contains(t, buf.String(), Version)
}

// =============================================================================
// ERROR TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", ErrMissingArgument("message", "parley ask hi"), ExitUsageError},
		{"auth validation", &auth.ValidationError{Field: "email", Message: "bad"}, ExitUsageError},
		{"config", fmt.Errorf("load: %w", config.ValidationError{Field: "server.url", Message: "bad"}), ExitConfigError},
		{"not signed in", ErrNotSignedIn, ExitAuthError},
		{"unauthorized", &api.APIError{Status: http.StatusUnauthorized, Detail: "Not authenticated"}, ExitAuthError},
		{"not found", &api.APIError{Status: http.StatusNotFound, Detail: "Not found"}, ExitNotFoundError},
		{"network", &api.NetworkError{Op: "GET /chat/sessions", Err: errors.New("refused")}, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError(t *testing.T) {
	t.Run("text prefers server detail", func(t *testing.T) {
		var buf bytes.Buffer
		DisplayError(&buf, fmt.Errorf("login: %w", &api.APIError{Status: 400, Detail: "邮箱或密码错误"}), false)
		assert.Contains(t, buf.String(), "[ERROR] 邮箱或密码错误")
	})

	t.Run("json envelope", func(t *testing.T) {
		var buf bytes.Buffer
		DisplayError(&buf, ErrNotSignedIn, true)

		var resp JSONResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrNotSignedIn.Error(), *resp.Error)
		assert.Equal(t, "auth_error", resp.Fields["error_type"])
	})

	t.Run("nil writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		DisplayError(&buf, nil, false)
		assert.Empty(t, buf.String())
	})
}

// =============================================================================
// COMMAND FIXTURES
// =============================================================================

type fakePrompter struct {
	lines     []string
	passwords []string
}

func (p *fakePrompter) Line(string) (string, error) {
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *fakePrompter) Password(string) (string, error) {
	if len(p.passwords) == 0 {
		return "", io.EOF
	}
	pw := p.passwords[0]
	p.passwords = p.passwords[1:]
	return pw, nil
}

// scriptReader feeds REPL lines and then reports end of input.
type scriptReader struct {
	lines  []string
	closed bool
}

func (r *scriptReader) ReadInput(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptReader) Close() { r.closed = true }

type cmdFixture struct {
	server *devserver.Server
	store  *auth.MemoryTokenStore
	env    *Env
	out    *bytes.Buffer
	errOut *bytes.Buffer
	prompt *fakePrompter
}

func newCmdFixture(t *testing.T, opts ...devserver.Option) *cmdFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	opts = append([]devserver.Option{devserver.WithBcryptCost(bcrypt.MinCost), devserver.WithLogger(logger)}, opts...)
	srv, err := devserver.New(opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	store := auth.NewMemoryTokenStore("")
	client := api.NewClient(ts.URL).WithRateLimit(0, 0).WithTokenStore(store).WithLogger(logger)

	f := &cmdFixture{
		server: srv,
		store:  store,
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		prompt: &fakePrompter{},
	}
	f.env = &Env{
		Ctx:    context.Background(),
		Config: config.Default(),
		Client: client,
		Logger: logger,
		Out:    f.out,
		Err:    f.errOut,
		Prompt: f.prompt,
	}
	return f
}

// signUp registers an account through the register command.
func (f *cmdFixture) signUp(t *testing.T) {
	t.Helper()
	f.prompt.passwords = []string{"secret1", "secret1"}
	require.NoError(t, HandleRegister(f.env, Args{Email: "user@example.com"}))
	f.reset()
}

func (f *cmdFixture) reset() {
	f.out.Reset()
	f.errOut.Reset()
}

// ask sends one message and returns the session it landed in.
func (f *cmdFixture) ask(t *testing.T, message string) string {
	t.Helper()
	require.NoError(t, HandleAsk(f.env, Args{Message: message, JSON: true}))
	var resp struct {
		Data askData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &resp))
	f.reset()
	require.NotEmpty(t, resp.Data.SessionID)
	return resp.Data.SessionID
}

// =============================================================================
// AUTH COMMAND TESTS
// =============================================================================

func TestRegisterLoginLogout(t *testing.T) {
	f := newCmdFixture(t)

	f.prompt.passwords = []string{"secret1", "secret1"}
	require.NoError(t, HandleRegister(f.env, Args{Email: "User@Example.com"}))
	assert.Contains(t, f.out.String(), "user@example.com")
	token, _ := f.store.Load()
	assert.NotEmpty(t, token)

	f.reset()
	require.NoError(t, HandleLogout(f.env, Args{}))
	token, _ = f.store.Load()
	assert.Empty(t, token)

	f.reset()
	f.prompt.lines = []string{"  user@example.com  "}
	f.prompt.passwords = []string{"secret1"}
	require.NoError(t, HandleLogin(f.env, Args{}))
	assert.Contains(t, f.out.String(), "已登录: user@example.com")
}

func TestRegister_MismatchFailsBeforeNetwork(t *testing.T) {
	f := newCmdFixture(t)
	f.prompt.passwords = []string{"secret1", "secret2"}

	err := HandleRegister(f.env, Args{Email: "a@b.com"})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newCmdFixture(t)
	f.signUp(t)
	require.NoError(t, HandleLogout(f.env, Args{Quiet: true}))

	f.prompt.passwords = []string{"wrong-password"}
	err := HandleLogin(f.env, Args{Email: "user@example.com"})
	require.Error(t, err)

	token, _ := f.store.Load()
	assert.Empty(t, token)
}

func TestWhoami(t *testing.T) {
	f := newCmdFixture(t)

	err := HandleWhoami(f.env, Args{})
	assert.ErrorIs(t, err, ErrNotSignedIn)

	f.signUp(t)
	require.NoError(t, HandleWhoami(f.env, Args{}))
	assert.Contains(t, f.out.String(), "user@example.com")
	assert.Contains(t, f.out.String(), "已激活")

	f.reset()
	require.NoError(t, HandleWhoami(f.env, Args{JSON: true}))
	var resp struct {
		Success bool       `json:"success"`
		Data    whoamiData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "user@example.com", resp.Data.Email)
	assert.NotNil(t, resp.Data.ExpiresAt)
}

func TestWhoami_StaleToken(t *testing.T) {
	f := newCmdFixture(t)
	require.NoError(t, f.store.Save("not-a-real-token"))

	err := HandleWhoami(f.env, Args{})
	require.Error(t, err)
	assert.Equal(t, ExitAuthError, GetExitCode(err))
}

// =============================================================================
// CONVERSATION COMMAND TESTS
// =============================================================================

func TestAsk_StreamsReply(t *testing.T) {
	f := newCmdFixture(t)
	f.signUp(t)

	require.NoError(t, HandleAsk(f.env, Args{Message: "你好"}))
	assert.Equal(t, "收到：你好\n", f.out.String())
	assert.Contains(t, f.errOut.String(), "会话: ")
}

func TestAsk_RequiresMessage(t *testing.T) {
	f := newCmdFixture(t)
	err := HandleAsk(f.env, Args{Message: "  "})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestAsk_ContinuesSession(t *testing.T) {
	f := newCmdFixture(t)
	f.signUp(t)
	id := f.ask(t, "first")

	require.NoError(t, HandleAsk(f.env, Args{Message: "second", SessionID: id, Quiet: true}))
	assert.Empty(t, f.errOut.String())

	sessions, err := f.env.Client.Sessions(f.env.Ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	hist, err := f.env.Client.ChatHistory(f.env.Ctx, id)
	require.NoError(t, err)
	assert.Len(t, hist.Messages, 4)
}

func TestAsk_DroppedStreamPrintsFullReply(t *testing.T) {
	reply := strings.Repeat("a", 40)
	f := newCmdFixture(t, devserver.WithResponder(func(string, []model.Message) string { return reply }))
	f.signUp(t)
	f.server.SetFaults(devserver.Faults{DropAfter: 2})

	require.NoError(t, HandleAsk(f.env, Args{Message: "hi"}))
	out := f.out.String()
	assert.Contains(t, out, streamInterrupted)
	assert.True(t, strings.HasSuffix(out, reply+"\n"))
}

func TestAsk_BothPathsFail(t *testing.T) {
	f := newCmdFixture(t)
	f.signUp(t)
	f.server.SetFaults(devserver.Faults{FailStream: true, FailChat: true})

	err := HandleAsk(f.env, Args{Message: "hi"})
	require.Error(t, err)
	var apiErr *api.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestSessionsHistoryClear(t *testing.T) {
	f := newCmdFixture(t)
	f.signUp(t)

	require.NoError(t, HandleSessions(f.env, Args{}))
	assert.Contains(t, f.out.String(), components.NoSessions)
	f.reset()

	id := f.ask(t, "今天的计划")

	require.NoError(t, HandleSessions(f.env, Args{}))
	assert.Contains(t, f.out.String(), id)
	assert.Contains(t, f.out.String(), "今天的计划")
	f.reset()

	require.NoError(t, HandleHistory(f.env, Args{SessionID: id}))
	assert.Contains(t, f.out.String(), "今天的计划")
	assert.Contains(t, f.out.String(), "收到：今天的计划")
	f.reset()

	require.NoError(t, HandleHistory(f.env, Args{SessionID: id, JSON: true}))
	var resp struct {
		Data api.HistoryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &resp))
	assert.Len(t, resp.Data.Messages, 2)
	f.reset()

	require.NoError(t, HandleClear(f.env, Args{SessionID: id}))
	assert.Contains(t, f.errOut.String(), "历史已清除")

	sessions, err := f.env.Client.Sessions(f.env.Ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestHistory_RequiresID(t *testing.T) {
	f := newCmdFixture(t)
	assert.Equal(t, ExitUsageError, GetExitCode(HandleHistory(f.env, Args{})))
	assert.Equal(t, ExitUsageError, GetExitCode(HandleClear(f.env, Args{})))
}

func TestSessions_NotSignedIn(t *testing.T) {
	f := newCmdFixture(t)
	err := HandleSessions(f.env, Args{JSON: true})
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Empty(t, f.out.String())
}

// =============================================================================
// CHAT REPL TESTS (chat.go)
// =============================================================================

func TestRunChat_SendAndCommands(t *testing.T) {
	f := newCmdFixture(t)
	f.signUp(t)

	reader := &scriptReader{lines: []string{
		"/help",
		"你好",
		"",
		"/sessions",
		"/new",
		"/history",
		"/switch 1",
		"/bogus",
		"exit",
		"never sent",
	}}
	require.NoError(t, RunChat(f.env, Args{}, reader))

	out := f.out.String()
	assert.Contains(t, out, "/switch <n|id>")
	assert.Contains(t, out, "收到：你好")
	assert.Contains(t, out, "* ", "active session is marked")
	assert.Contains(t, out, "已开始新对话")
	assert.Contains(t, out, "当前没有消息")
	assert.Contains(t, out, "已切换到: 你好")
	assert.Contains(t, f.errOut.String(), "[ERROR]")
	assert.Equal(t, []string{"never sent"}, reader.lines)

	sessions, err := f.env.Client.Sessions(f.env.Ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestRunChat_ResumeAndClear(t *testing.T) {
	f := newCmdFixture(t)
	f.signUp(t)
	id := f.ask(t, "first")

	reader := &scriptReader{lines: []string{"second", "/clear", "/exit"}}
	require.NoError(t, RunChat(f.env, Args{SessionID: id, Quiet: true}, reader))

	out := f.out.String()
	assert.Contains(t, out, "已切换到: first")
	assert.Contains(t, out, "收到：second")
	assert.Contains(t, out, "已删除会话 "+id)

	sessions, err := f.env.Client.Sessions(f.env.Ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRunChat_EndOfInput(t *testing.T) {
	f := newCmdFixture(t)
	f.signUp(t)
	require.NoError(t, RunChat(f.env, Args{Quiet: true}, &scriptReader{}))
}

func TestRunChat_UnauthorizedEndsSession(t *testing.T) {
	f := newCmdFixture(t)
	require.NoError(t, f.store.Save("not-a-real-token"))
	_, err := f.env.Client.RestoreToken()
	require.NoError(t, err)

	err = RunChat(f.env, Args{}, &scriptReader{lines: []string{"hi"}})
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
}

// =============================================================================
// EXPORT TESTS (export_cmd.go)
// =============================================================================

func TestExport(t *testing.T) {
	f := newCmdFixture(t)
	f.signUp(t)
	id := f.ask(t, "导出测试")

	path := filepath.Join(t.TempDir(), "chat.md")
	require.NoError(t, HandleExport(f.env, Args{SessionID: id, Format: "md", Output: path}))
	assert.Equal(t, path+"\n", f.out.String())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "导出测试")
	assert.Contains(t, string(content), "收到：导出测试")
	f.reset()

	jsonPath := filepath.Join(t.TempDir(), "chat.json")
	require.NoError(t, HandleExport(f.env, Args{SessionID: id, Format: "json", Output: jsonPath, JSON: true}))
	var resp struct {
		Data exportData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Messages)
	assert.Equal(t, jsonPath, resp.Data.Path)
}

func TestExport_Errors(t *testing.T) {
	f := newCmdFixture(t)

	assert.Equal(t, ExitUsageError, GetExitCode(HandleExport(f.env, Args{})))
	assert.Equal(t, ExitUsageError, GetExitCode(HandleExport(f.env, Args{SessionID: "x", Format: "pdf"})))

	f.signUp(t)
	err := HandleExport(f.env, Args{SessionID: "missing", Output: filepath.Join(t.TempDir(), "x.md")})
	require.Error(t, err, "a session without messages is not exported")
}

// =============================================================================
// CONFIG AND DEV SERVER TESTS
// =============================================================================

func TestConfigCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)
	f := newCmdFixture(t)

	require.NoError(t, HandleConfig(f.env, Args{Subcommand: "path"}))
	assert.Equal(t, filepath.Join(home, "config.toml")+"\n", f.out.String())
	f.reset()

	require.NoError(t, HandleConfig(f.env, Args{Subcommand: "init"}))
	cfg, err := config.LoadFrom(filepath.Join(home, "config.toml"), map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, config.Default().Server.URL, cfg.Server.URL)
	f.reset()

	require.NoError(t, HandleConfig(f.env, Args{Subcommand: "init"}))
	assert.Contains(t, f.errOut.String(), "已存在")
	f.reset()

	require.NoError(t, HandleConfig(f.env, Args{}))
	assert.Contains(t, f.out.String(), "[server]")

	assert.Equal(t, ExitUsageError, GetExitCode(HandleConfig(f.env, Args{Subcommand: "nope"})))
}

func TestServeDev_ShutsDownOnCancel(t *testing.T) {
	f := newCmdFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.env.Ctx = ctx

	srv, err := devserver.New(devserver.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- serveDev(f.env, Args{Quiet: true}, srv, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("dev server did not stop")
	}
}
