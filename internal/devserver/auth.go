// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Error details returned by the auth endpoints.
const (
	detailEmailTaken     = "该邮箱已被注册"
	detailPasswordShort  = "密码长度至少 6 位"
	detailBadCredentials = "邮箱或密码错误"
	detailDisabled       = "账户已被禁用"
	detailBadToken       = "无效的认证令牌"
	detailNoUser         = "用户不存在"
	detailNotAuth        = "Not authenticated"
)

const minPasswordLength = 6

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ctxKey struct{}

// userFrom returns the user attached by requireUser.
func userFrom(ctx context.Context) *user {
	u, _ := ctx.Value(ctxKey{}).(*user)
	return u
}

// =============================================================================
// TOKENS
// =============================================================================

func (s *Server) issueToken(u *user) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   u.id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(token string) (string, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// requireUser resolves the bearer token to an active user.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusForbidden, detailNotAuth)
			return
		}
		id, err := s.parseToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, detailBadToken)
			return
		}

		s.mu.Lock()
		u, found := s.byID[id]
		active := found && u.isActive
		s.mu.Unlock()

		if !found {
			respondError(w, http.StatusUnauthorized, detailNoUser)
			return
		}
		if !active {
			respondError(w, http.StatusForbidden, detailDisabled)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

// =============================================================================
// HANDLERS
// =============================================================================

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondValidation(w, validationEntry{Loc: []string{"body"}, Msg: "invalid JSON body", Type: "value_error.json"})
		return c, false
	}
	addr, err := mail.ParseAddress(c.Email)
	if err != nil || addr.Address != c.Email {
		respondValidation(w, validationEntry{
			Loc:  []string{"body", "email"},
			Msg:  "value is not a valid email address",
			Type: "value_error.email",
		})
		return c, false
	}
	c.Email = strings.ToLower(c.Email)
	return c, true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	_, exists := s.users[c.Email]
	s.mu.Unlock()
	if exists {
		respondError(w, http.StatusBadRequest, detailEmailTaken)
		return
	}
	if utf8.RuneCountInString(c.Password) < minPasswordLength {
		respondError(w, http.StatusBadRequest, detailPasswordShort)
		return
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.bcryptCost)
	if err != nil {
		s.logger.Sugar().Errorw("hash password", "error", err)
		respondError(w, http.StatusInternalServerError, "注册失败")
		return
	}

	u := &user{id: uuid.NewString(), email: c.Email, digest: digest, isActive: true}
	s.mu.Lock()
	if _, raced := s.users[c.Email]; raced {
		s.mu.Unlock()
		respondError(w, http.StatusBadRequest, detailEmailTaken)
		return
	}
	s.users[u.email] = u
	s.byID[u.id] = u
	s.mu.Unlock()

	s.respondToken(w, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	u, found := s.users[c.Email]
	s.mu.Unlock()

	if !found || bcrypt.CompareHashAndPassword(u.digest, []byte(c.Password)) != nil {
		respondError(w, http.StatusUnauthorized, detailBadCredentials)
		return
	}

	s.mu.Lock()
	active := u.isActive
	s.mu.Unlock()
	if !active {
		respondError(w, http.StatusForbidden, detailDisabled)
		return
	}

	s.respondToken(w, u)
}

func (s *Server) respondToken(w http.ResponseWriter, u *user) {
	token, err := s.issueToken(u)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "令牌生成失败")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	s.mu.Lock()
	body := map[string]any{"id": u.id, "email": u.email, "is_active": u.isActive}
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, body)
}
