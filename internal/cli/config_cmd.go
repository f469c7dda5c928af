// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"os"

	"github.com/jeranaias/parley-tui/internal/config"
)

// HandleConfig runs "config show", "config path" and "config init".
func HandleConfig(env *Env, args Args) error {
	switch args.Subcommand {
	case "", "show":
		env.printf("%s", env.Config.String())
		return nil
	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		env.printf("%s\n", path)
		return nil
	case "init":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		return initConfig(env, args, path)
	default:
		return &UsageError{Field: "subcommand", Value: args.Subcommand, Reason: "unknown config subcommand", Example: "parley config show|path|init"}
	}
}

func initConfig(env *Env, args Args, path string) error {
	if _, err := os.Stat(path); err == nil {
		env.status(args, "%s 配置文件已存在: %s\n", WarningStyle.Render("[WARN]"), path)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	env.status(args, "%s 已写入 %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}
