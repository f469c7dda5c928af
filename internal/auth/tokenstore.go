// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/parley-tui/internal/util"
)

const (
	tokenFilePerm = 0600
	tokenDirPerm  = 0700

	// watchDebounce collapses the burst of events an atomic rename produces.
	watchDebounce = 150 * time.Millisecond
)

// =============================================================================
// FILE TOKEN STORE
// =============================================================================

// FileTokenStore keeps the bearer token in a single owner-only file. It
// implements api.TokenStore.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenStore creates a store backed by path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the token file location.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load returns the stored token, or "" when none has been saved.
func (s *FileTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token atomically. Saving "" is the same as Clear.
func (s *FileTokenStore) Save(token string) error {
	if token == "" {
		return s.Clear()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := util.AtomicWriteFileWithDir(s.path, []byte(token), tokenFilePerm, tokenDirPerm); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Clear removes the token file. A missing file is not an error.
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// Watch calls fn whenever the token file is created, rewritten or removed by
// another process, until ctx is cancelled. The parent directory is watched
// so atomic replacements are seen.
func (s *FileTokenStore) Watch(ctx context.Context, fn func()) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, tokenDirPerm); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go s.watchLoop(ctx, watcher, fn)
	return nil
}

func (s *FileTokenStore) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, fn func()) {
	defer watcher.Close()

	target := filepath.Clean(s.path)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				timer.Reset(watchDebounce)
			}

		case <-timer.C:
			fn()

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// =============================================================================
// MEMORY TOKEN STORE
// =============================================================================

// MemoryTokenStore keeps the token in memory. It is used by one-shot
// commands run with --no-persist and by tests.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore creates a store pre-loaded with token.
func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

// Load returns the held token.
func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

// Save replaces the held token.
func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear drops the held token.
func (s *MemoryTokenStore) Clear() error {
	return s.Save("")
}
