// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the chat assistant backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/parley-tui/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is the server URL used when none is configured.
	DefaultBaseURL = "http://127.0.0.1:8000"

	// BasePath is the fixed prefix of every endpoint.
	BasePath = "/api"

	// DefaultTimeout bounds request/response calls. Streams are bounded by
	// their context instead.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed non-streaming response body.
	MaxResponseSize = 10 * 1024 * 1024

	// DefaultRateLimit and DefaultRateBurst shape outgoing requests.
	DefaultRateLimit = 10
	DefaultRateBurst = 20
)

// TokenStore persists the bearer token across runs. auth.FileTokenStore is
// the production implementation.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the backend. It is safe for concurrent use; the token is
// guarded by mu and only changes through SetToken, ClearToken and
// RestoreToken.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	logger       *zap.Logger
	limiter      *rate.Limiter
	store        TokenStore
	userAgent    string

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the server at baseURL. The "/api" prefix is
// appended automatically.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/") + BasePath,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		streamClient: &http.Client{},
		logger:       zap.NewNop(),
		limiter:      rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateBurst),
		userAgent:    "parley",
	}
}

// WithHTTPClient replaces the transport used for all calls.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamClient = &http.Client{Transport: hc.Transport}
	return c
}

// WithTimeout sets the timeout for request/response calls.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithLogger sets the logger. A nil logger disables logging.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
	return c
}

// WithRateLimit sets the client-side request limiter. A non-positive rate
// disables limiting.
func (c *Client) WithRateLimit(perSecond float64, burst int) *Client {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// WithTokenStore attaches durable token storage. The stored token is not read
// until RestoreToken is called.
func (c *Client) WithTokenStore(store TokenStore) *Client {
	c.store = store
	return c
}

// WithUserAgent sets the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// BaseURL returns the API root including the "/api" prefix.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// TOKEN
// =============================================================================

// Token returns the bearer token currently held, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// HasToken reports whether a bearer token is held.
func (c *Client) HasToken() bool {
	return c.Token() != ""
}

// SetToken replaces the held token and persists it when a store is attached.
func (c *Client) SetToken(token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(token); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
	}
	return nil
}

// ClearToken drops the held token and removes it from the store. After this
// returns no request carries an Authorization header.
func (c *Client) ClearToken() error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			return fmt.Errorf("failed to clear stored token: %w", err)
		}
	}
	return nil
}

// RestoreToken loads the token from the store into memory without writing
// it back. It reports whether a token is now held.
func (c *Client) RestoreToken() (bool, error) {
	if c.store == nil {
		return c.HasToken(), nil
	}
	token, err := c.store.Load()
	if err != nil {
		return false, fmt.Errorf("failed to load stored token: %w", err)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return token != "", nil
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login exchanges credentials for a token and stores it before returning.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

// Register creates an account and stores the returned token before returning.
func (c *Client) Register(ctx context.Context, email, password string) (*TokenResponse, error) {
	return c.authenticate(ctx, "/auth/register", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, path, Credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if err := c.SetToken(resp.AccessToken); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser returns the profile for the held token. A rejected token
// yields an *APIError matching ErrUnauthorized.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// =============================================================================
// CHAT ENDPOINTS
// =============================================================================

// SendMessage is the single-shot chat call used as the streaming fallback.
func (c *Client) SendMessage(ctx context.Context, message, sessionID string) (*ChatResponse, error) {
	var resp ChatResponse
	req := ChatRequest{Message: message, SessionID: sessionID}
	if err := c.do(ctx, http.MethodPost, "/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChatHistory returns the ordered messages of a session.
func (c *Client) ChatHistory(ctx context.Context, sessionID string) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/chat/history/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearChatHistory deletes a session's history on the server.
func (c *Client) ClearChatHistory(ctx context.Context, sessionID string) (*AckResponse, error) {
	var resp AckResponse
	if err := c.do(ctx, http.MethodDelete, "/chat/history/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sessions lists the user's conversations.
func (c *Client) Sessions(ctx context.Context) ([]model.SessionItem, error) {
	var resp SessionsResponse
	if err := c.do(ctx, http.MethodGet, "/chat/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// StreamMessage opens /chat/stream. A non-success status fails with an
// *APIError and a missing body with a *NetworkError; both happen before any
// event is produced. The caller must Close the returned stream.
func (c *Client) StreamMessage(ctx context.Context, message, sessionID string) (*Stream, error) {
	const op = "POST /chat/stream"

	req, err := c.newRequest(ctx, http.MethodPost, "/chat/stream", ChatRequest{Message: message, SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := c.streamClient.Do(req)
	if err != nil {
		c.logger.Warn("stream request failed", zap.String("op", op), zap.Error(err))
		return nil, &NetworkError{Op: op, Err: err}
	}
	c.logResponse(req, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, readErr := readResponse(resp)
		if readErr != nil {
			return nil, &NetworkError{Op: op, Err: readErr}
		}
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, &NetworkError{Op: op, Err: ErrNoBody}
	}

	return newStream(resp.Body, resp.Header.Get("X-Session-ID")), nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// newRequest builds a request with JSON body and standard headers. It waits
// on the rate limiter first.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	op := method + " " + path
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, body != nil)
	return req, nil
}

// setHeaders attaches the bearer token when one is held, and nothing
// otherwise.
func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
}

// do performs a request/response call and decodes a successful body into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("op", op), zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.logResponse(req, resp.StatusCode, time.Since(start))

	data, err := readResponse(resp)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleErrorResponse(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}

// logResponse logs method, path, status and latency. Headers and bodies are
// never logged.
func (c *Client) logResponse(req *http.Request, status int, latency time.Duration) {
	c.logger.Debug("api response",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts a failed response into an *APIError. The
// detail field may be a string or a list of validation entries; an
// unparseable body yields "Unknown error".
func handleErrorResponse(statusCode int, body []byte) error {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return &APIError{Status: statusCode, Detail: unknownErrorDetail}
	}

	detail := ""
	switch d := payload.Detail.(type) {
	case string:
		detail = d
	case []any:
		var parts []string
		for _, item := range d {
			if entry, ok := item.(map[string]any); ok {
				if msg, ok := entry["msg"].(string); ok && msg != "" {
					parts = append(parts, msg)
				}
			}
		}
		detail = strings.Join(parts, "; ")
	}

	if detail == "" {
		detail = genericDetail(statusCode)
	}
	return &APIError{Status: statusCode, Detail: detail}
}
