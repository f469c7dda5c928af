// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger. Output always goes to a file:
// the TUI owns the terminal.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/parley-tui/internal/config"
)

// New returns a JSON file logger for cfg, or a no-op logger when logging
// is disabled. The returned cleanup flushes buffered entries.
func New(cfg *config.Config) (*zap.Logger, func(), error) {
	if cfg == nil || !cfg.Log.Enabled {
		return zap.NewNop(), func() {}, nil
	}

	path, err := cfg.LogPath()
	if err != nil {
		return nil, nil, err
	}
	return NewFile(path, cfg.Log.Level)
}

// NewFile builds a logger that appends to path at the given level.
func NewFile(path, level string) (*zap.Logger, func(), error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	// zap opens the sink itself; create it first so it is owner-only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	f.Close()

	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.Sampling = nil

	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	logger = logger.With(zap.Int("pid", os.Getpid()))
	return logger, func() { _ = logger.Sync() }, nil
}
