// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/qmuntal/stateless"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
)

// State is the authentication state of the client.
type State string

const (
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

type trigger string

const (
	triggerValidated trigger = "validated"
	triggerRejected  trigger = "rejected"
	triggerLoggedIn  trigger = "loggedIn"
	triggerLoggedOut trigger = "loggedOut"
)

// Backend is the subset of api.Client the session needs.
type Backend interface {
	RestoreToken() (bool, error)
	ClearToken() error
	CurrentUser(ctx context.Context) (*model.User, error)
	Login(ctx context.Context, email, password string) (*api.TokenResponse, error)
	Register(ctx context.Context, email, password string) (*api.TokenResponse, error)
}

// =============================================================================
// SESSION
// =============================================================================

// Session tracks who is signed in. It starts in StateLoading and settles in
// StateAuthenticated or StateAnonymous after Bootstrap. Every method is
// safe for concurrent use; operations are serialized.
type Session struct {
	backend Backend
	logger  *zap.Logger
	fsm     *stateless.StateMachine

	opMu sync.Mutex

	mu   sync.RWMutex
	user *model.User
}

// NewSession creates a session in StateLoading.
func NewSession(backend Backend, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		backend: backend,
		logger:  logger,
		fsm:     stateless.NewStateMachine(StateLoading),
	}
	s.configure()
	return s
}

func (s *Session) configure() {
	s.fsm.Configure(StateLoading).
		Permit(triggerValidated, StateAuthenticated).
		Permit(triggerLoggedIn, StateAuthenticated).
		Permit(triggerRejected, StateAnonymous).
		Permit(triggerLoggedOut, StateAnonymous)

	s.fsm.Configure(StateAuthenticated).
		OnEntry(s.enterAuthenticated).
		PermitReentry(triggerValidated).
		PermitReentry(triggerLoggedIn).
		Permit(triggerRejected, StateAnonymous).
		Permit(triggerLoggedOut, StateAnonymous)

	s.fsm.Configure(StateAnonymous).
		OnEntry(s.enterAnonymous).
		Permit(triggerValidated, StateAuthenticated).
		Permit(triggerLoggedIn, StateAuthenticated).
		Ignore(triggerRejected).
		Ignore(triggerLoggedOut)

	s.fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		s.logger.Debug("auth transition",
			zap.Any("from", t.Source),
			zap.Any("to", t.Destination),
			zap.Any("trigger", t.Trigger),
		)
	})
}

func (s *Session) enterAuthenticated(_ context.Context, args ...any) error {
	if len(args) == 0 {
		return fmt.Errorf("entering %s without a user", StateAuthenticated)
	}
	user, ok := args[0].(*model.User)
	if !ok || user == nil {
		return fmt.Errorf("entering %s with %T, want *model.User", StateAuthenticated, args[0])
	}
	s.setUser(user)
	return nil
}

func (s *Session) enterAnonymous(_ context.Context, _ ...any) error {
	s.setUser(nil)
	return nil
}

// State returns the current state.
func (s *Session) State() State {
	return s.fsm.MustState().(State)
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) setUser(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.user = nil
		return
	}
	u := *user
	s.user = &u
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Bootstrap validates a stored token. With no token the session becomes
// anonymous without a network call. A token the server does not accept is
// cleared. The session always leaves StateLoading; the returned error only
// explains a rejection.
func (s *Session) Bootstrap(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.validateStored(ctx)
}

// Resume re-reads the token store after it changed on disk and revalidates.
// A removed token signs the session out.
func (s *Session) Resume(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.validateStored(ctx)
}

func (s *Session) validateStored(ctx context.Context) error {
	ok, err := s.backend.RestoreToken()
	if err != nil {
		s.logger.Warn("could not read stored token", zap.Error(err))
		s.fire(ctx, triggerRejected)
		return err
	}
	if !ok {
		s.fire(ctx, triggerLoggedOut)
		return nil
	}

	user, err := s.backend.CurrentUser(ctx)
	if err != nil {
		s.logger.Info("stored token rejected", zap.Error(err))
		s.clearToken()
		s.fire(ctx, triggerRejected)
		return err
	}
	return s.fire(ctx, triggerValidated, user)
}

// Login signs in. Form errors are returned as *ValidationError before any
// request is made; server errors leave the state unchanged.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if err := ValidateLogin(email, password); err != nil {
		return err
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, err := s.backend.Login(ctx, NormalizeEmail(email), password); err != nil {
		return err
	}
	return s.completeSignIn(ctx)
}

// Register creates an account and signs in.
func (s *Session) Register(ctx context.Context, email, password, confirm string) error {
	if err := ValidateRegister(email, password, confirm); err != nil {
		return err
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, err := s.backend.Register(ctx, NormalizeEmail(email), password); err != nil {
		return err
	}
	return s.completeSignIn(ctx)
}

// completeSignIn loads the profile for the token just stored.
func (s *Session) completeSignIn(ctx context.Context) error {
	user, err := s.backend.CurrentUser(ctx)
	if err != nil {
		s.clearToken()
		s.fire(ctx, triggerRejected)
		return err
	}
	return s.fire(ctx, triggerLoggedIn, user)
}

// Logout clears the token and the user.
func (s *Session) Logout(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	err := s.backend.ClearToken()
	s.setUser(nil)
	s.fire(ctx, triggerLoggedOut)
	return err
}

func (s *Session) clearToken() {
	if err := s.backend.ClearToken(); err != nil {
		s.logger.Warn("could not clear token", zap.Error(err))
	}
}

func (s *Session) fire(ctx context.Context, t trigger, args ...any) error {
	if err := s.fsm.FireCtx(ctx, t, args...); err != nil {
		s.logger.Error("auth transition failed", zap.String("trigger", string(t)), zap.Error(err))
		return err
	}
	return nil
}
