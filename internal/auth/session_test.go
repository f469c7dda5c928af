// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
)

// fakeBackend records calls and serves canned answers.
type fakeBackend struct {
	mu sync.Mutex

	stored  string // durable token
	held    string // in-memory token
	users   map[string]*model.User
	loginFn func(email, password string) (string, error)

	meCalls    int
	clearCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{users: map[string]*model.User{
		"good": {ID: "u-1", Email: "a@b.com", IsActive: true},
	}}
}

func (f *fakeBackend) RestoreToken() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = f.stored
	return f.held != "", nil
}

func (f *fakeBackend) ClearToken() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	f.held, f.stored = "", ""
	return nil
}

func (f *fakeBackend) CurrentUser(context.Context) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if u, ok := f.users[f.held]; ok {
		return u, nil
	}
	return nil, &api.APIError{Status: http.StatusUnauthorized, Detail: "Could not validate credentials"}
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (*api.TokenResponse, error) {
	tok, err := f.loginFn(email, password)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.held, f.stored = tok, tok
	f.mu.Unlock()
	return &api.TokenResponse{AccessToken: tok, TokenType: "bearer"}, nil
}

func (f *fakeBackend) Register(ctx context.Context, email, password string) (*api.TokenResponse, error) {
	return f.Login(ctx, email, password)
}

func TestSession_StartsLoading(t *testing.T) {
	s := NewSession(newFakeBackend(), zaptest.NewLogger(t))
	assert.Equal(t, StateLoading, s.State())
	assert.Nil(t, s.User())
}

func TestSession_BootstrapNoTokenSkipsNetwork(t *testing.T) {
	backend := newFakeBackend()
	s := NewSession(backend, zaptest.NewLogger(t))

	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Equal(t, StateAnonymous, s.State())
	assert.Zero(t, backend.meCalls)
}

func TestSession_BootstrapValidToken(t *testing.T) {
	backend := newFakeBackend()
	backend.stored = "good"
	s := NewSession(backend, zaptest.NewLogger(t))

	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Equal(t, StateAuthenticated, s.State())
	require.NotNil(t, s.User())
	assert.Equal(t, "a@b.com", s.User().Email)
}

func TestSession_BootstrapRejectedTokenIsCleared(t *testing.T) {
	backend := newFakeBackend()
	backend.stored = "expired"
	s := NewSession(backend, zaptest.NewLogger(t))

	err := s.Bootstrap(context.Background())
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, backend.stored)
	assert.Empty(t, backend.held)
}

func TestSession_LoginAndLogout(t *testing.T) {
	backend := newFakeBackend()
	var gotEmail string
	backend.loginFn = func(email, _ string) (string, error) {
		gotEmail = email
		return "good", nil
	}
	s := NewSession(backend, zaptest.NewLogger(t))
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))

	require.NoError(t, s.Login(ctx, " ａ@b.com ", "secret1"))
	assert.Equal(t, "a@b.com", gotEmail, "email is normalized before sending")
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "u-1", s.User().ID)

	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.User())
	assert.Empty(t, backend.held)
	assert.Empty(t, backend.stored)
}

func TestSession_LoginFailureStaysAnonymous(t *testing.T) {
	backend := newFakeBackend()
	backend.loginFn = func(string, string) (string, error) {
		return "", &api.APIError{Status: http.StatusUnauthorized, Detail: "Incorrect email or password"}
	}
	s := NewSession(backend, zaptest.NewLogger(t))
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))

	err := s.Login(ctx, "a@b.com", "wrong")
	assert.Equal(t, "Incorrect email or password", api.UserMessage(err))
	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.User())
}

func TestSession_ValidationBeforeNetwork(t *testing.T) {
	backend := newFakeBackend()
	backend.loginFn = func(string, string) (string, error) {
		t.Fatal("backend must not be called")
		return "", nil
	}
	s := NewSession(backend, zaptest.NewLogger(t))
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))

	var vErr *ValidationError
	require.ErrorAs(t, s.Register(ctx, "a@b.com", "secret1", "secret2"), &vErr)
	assert.Equal(t, "两次输入的密码不一致", vErr.Message)

	require.ErrorAs(t, s.Register(ctx, "a@b.com", "123", "123"), &vErr)
	assert.Equal(t, "密码长度至少为6位", vErr.Message)

	require.ErrorAs(t, s.Login(ctx, "nope", "x"), &vErr)
	assert.Equal(t, StateAnonymous, s.State())
}

func TestSession_RegisterProfileFailureClearsToken(t *testing.T) {
	backend := newFakeBackend()
	backend.loginFn = func(string, string) (string, error) { return "unknown-user", nil }
	s := NewSession(backend, zaptest.NewLogger(t))
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))

	err := s.Register(ctx, "a@b.com", "secret1", "secret1")
	assert.True(t, errors.Is(err, api.ErrUnauthorized))
	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, backend.stored)
}

func TestSession_ResumeFollowsStore(t *testing.T) {
	backend := newFakeBackend()
	s := NewSession(backend, zaptest.NewLogger(t))
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))

	// Another process logs in.
	backend.stored = "good"
	require.NoError(t, s.Resume(ctx))
	assert.Equal(t, StateAuthenticated, s.State())

	// Resume with the same token keeps the session.
	require.NoError(t, s.Resume(ctx))
	assert.Equal(t, StateAuthenticated, s.State())

	// Another process logs out.
	backend.stored = ""
	require.NoError(t, s.Resume(ctx))
	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.User())
}
