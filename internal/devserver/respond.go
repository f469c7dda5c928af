// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"encoding/json"
	"net/http"
)

// respondJSON writes payload with status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes the backend's {"detail": ...} error body.
func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

// validationEntry mirrors one element of a request-validation error list.
type validationEntry struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// respondValidation writes a 422 with a list detail.
func respondValidation(w http.ResponseWriter, entries ...validationEntry) {
	respondJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": entries})
}
