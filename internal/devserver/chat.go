// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/util"
)

const (
	detailChatFailed   = "聊天处理失败"
	detailStreamFailed = "流式响应不可用"
	clearedAck         = "历史已清除"
	titleRunes         = 30
)

type chatRequest struct {
	Message   string  `json:"message"`
	SessionID *string `json:"session_id"`
}

type sessionItem struct {
	ID    string  `json:"id"`
	Title *string `json:"title"`
}

func decodeChat(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, validationEntry{Loc: []string{"body"}, Msg: "invalid JSON body", Type: "value_error.json"})
		return req, false
	}
	if req.Message == "" {
		respondValidation(w, validationEntry{Loc: []string{"body", "message"}, Msg: "field required", Type: "value_error.missing"})
		return req, false
	}
	return req, true
}

// =============================================================================
// STORE
// =============================================================================

// resolveSession returns the session id to use and whether it was newly
// assigned by the server.
func resolveSession(req chatRequest) (string, bool) {
	if req.SessionID != nil && *req.SessionID != "" {
		return *req.SessionID, false
	}
	return uuid.NewString(), true
}

// history returns a copy of a session's messages visible to owner.
func (s *Server) history(owner, id string) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.owner != owner {
		return []model.Message{}
	}
	return append([]model.Message{}, sess.messages...)
}

// record appends a completed exchange, creating the session on first use.
func (s *Server) record(owner, id, message, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{
			id:      id,
			owner:   owner,
			title:   util.FirstRunes(message, titleRunes),
			seq:     s.nextSeq,
		}
		s.nextSeq++
		s.sessions[id] = sess
	}
	if sess.owner != owner {
		return
	}
	sess.messages = append(sess.messages, model.NewUserMessage(message), model.NewAssistantMessage(reply))
}

// chunks splits a reply into frames of a few runes each.
func chunks(reply string) []string {
	runes := []rune(reply)
	out := make([]string, 0, len(runes)/chunkRunes+1)
	for start := 0; start < len(runes); start += chunkRunes {
		end := start + chunkRunes
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChat(w, r)
	if !ok {
		return
	}
	if s.currentFaults().FailChat {
		respondError(w, http.StatusInternalServerError, detailChatFailed)
		return
	}

	u := userFrom(r.Context())
	id, _ := resolveSession(req)
	reply := s.respond(req.Message, s.history(u.id, id))
	s.record(u.id, id, req.Message, reply)

	respondJSON(w, http.StatusOK, map[string]string{"message": reply, "session_id": id})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChat(w, r)
	if !ok {
		return
	}
	faults := s.currentFaults()
	if faults.FailStream {
		respondError(w, http.StatusInternalServerError, detailStreamFailed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	u := userFrom(r.Context())
	id, assigned := resolveSession(req)
	reply := s.respond(req.Message, s.history(u.id, id))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if s.sessionHdr {
		w.Header().Set("X-Session-ID", id)
	}
	w.WriteHeader(http.StatusOK)

	frame := func(data string) {
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	if assigned {
		frame("session_id:" + id)
	}
	for i, chunk := range chunks(reply) {
		if faults.ErrorAfter > 0 && i == faults.ErrorAfter {
			frame("[ERROR] simulated model failure")
			return
		}
		if faults.DropAfter > 0 && i == faults.DropAfter {
			s.logger.Debug("dropping stream", zap.String("session", id))
			panic(http.ErrAbortHandler)
		}
		select {
		case <-r.Context().Done():
			return
		default:
		}
		frame(chunk)
		if s.tokenDelay > 0 {
			time.Sleep(s.tokenDelay)
		}
	}
	s.record(u.id, id, req.Message, reply)
	frame("[DONE]")
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())

	s.mu.Lock()
	var owned []*session
	for _, sess := range s.sessions {
		if sess.owner == u.id {
			owned = append(owned, sess)
		}
	}
	s.mu.Unlock()

	sort.Slice(owned, func(i, j int) bool { return owned[i].seq > owned[j].seq })

	items := make([]sessionItem, 0, len(owned))
	for _, sess := range owned {
		item := sessionItem{ID: sess.id}
		if title := strings.TrimSpace(sess.title); title != "" {
			item.Title = &title
		}
		items = append(items, item)
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": items})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	id := chi.URLParam(r, "sessionID")
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"messages":   s.history(u.id, id),
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	id := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok && sess.owner == u.id {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]string{"message": clearedAck})
}
