// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/parley-tui/internal/model"
)

const (
	// DefaultTokenTTL matches the backend's seven-day access tokens.
	DefaultTokenTTL = 7 * 24 * time.Hour

	// chunkRunes is how many runes each streamed frame carries.
	chunkRunes = 4
)

// Responder produces the assistant reply for message given the prior
// history of the session.
type Responder func(message string, history []model.Message) string

// EchoResponder answers by quoting the message.
func EchoResponder(message string, _ []model.Message) string {
	return "收到：" + message
}

// Faults injects failures into the chat endpoints.
type Faults struct {
	// FailStream makes /chat/stream answer 500 before streaming.
	FailStream bool
	// FailChat makes /chat answer 500.
	FailChat bool
	// ErrorAfter sends a [ERROR] frame after this many content frames.
	ErrorAfter int
	// DropAfter aborts the connection after this many content frames.
	DropAfter int
}

type user struct {
	id       string
	email    string
	digest   []byte
	isActive bool
}

type session struct {
	id       string
	owner    string
	title    string
	messages []model.Message
	seq      int
}

// =============================================================================
// SERVER
// =============================================================================

// Server is the in-memory backend. Create it with New and mount Handler.
type Server struct {
	secret     []byte
	bcryptCost int
	tokenTTL   time.Duration
	tokenDelay time.Duration
	sessionHdr bool
	respond    Responder
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.Mutex
	users    map[string]*user // by email
	byID     map[string]*user
	sessions map[string]*session
	nextSeq  int
	faults   Faults
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the token signing key.
func WithSecret(secret []byte) Option {
	return func(s *Server) {
		if len(secret) > 0 {
			s.secret = secret
		}
	}
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// WithTokenTTL sets the access token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithTokenDelay pauses between streamed frames.
func WithTokenDelay(d time.Duration) Option {
	return func(s *Server) { s.tokenDelay = d }
}

// WithSessionHeader also reports the session in an X-Session-ID header.
func WithSessionHeader(on bool) Option {
	return func(s *Server) { s.sessionHdr = on }
}

// WithResponder replaces the echo responder.
func WithResponder(r Responder) Option {
	return func(s *Server) {
		if r != nil {
			s.respond = r
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates an empty server. Without WithSecret a random key is used, so
// tokens do not survive a restart.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		bcryptCost: bcrypt.DefaultCost,
		tokenTTL:   DefaultTokenTTL,
		respond:    EchoResponder,
		logger:     zap.NewNop(),
		now:        time.Now,
		users:      make(map[string]*user),
		byID:       make(map[string]*user),
		sessions:   make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.secret == nil {
		s.secret = make([]byte, 32)
		if _, err := rand.Read(s.secret); err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
	}
	return s, nil
}

// SetFaults replaces the injected faults.
func (s *Server) SetFaults(f Faults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = f
}

func (s *Server) currentFaults() Faults {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faults
}

// SetActive enables or disables an account.
func (s *Server) SetActive(email string, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if ok {
		u.isActive = active
	}
	return ok
}

// Handler returns the routes under /api plus /health.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", s.handleRegister)
			auth.Post("/login", s.handleLogin)
			auth.With(s.requireUser).Get("/me", s.handleMe)
		})
		api.Route("/chat", func(chat chi.Router) {
			chat.Use(s.requireUser)
			chat.Post("/", s.handleChat)
			chat.Post("/stream", s.handleStream)
			chat.Get("/sessions", s.handleSessions)
			chat.Get("/history/{sessionID}", s.handleHistory)
			chat.Delete("/history/{sessionID}", s.handleClearHistory)
		})
	})

	return r
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
