// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads parley's settings.
//
// # Configuration Precedence
//
// Later sources override earlier ones:
//   - Built-in defaults
//   - ~/.parley/config.toml (the directory moves with PARLEY_HOME)
//   - Environment variables (PARLEY_SERVER_URL, PARLEY_LOG_LEVEL, ...)
//
// A .env file in the working directory is loaded into the environment by
// main before Load runs.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClient(cfg.Server.URL).WithTimeout(cfg.Server.Timeout())
package config
