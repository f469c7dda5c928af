// parley - a terminal client for the parley chat service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/cli"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/logging"
	"github.com/jeranaias/parley-tui/internal/ui"
	"github.com/jeranaias/parley-tui/internal/ui/chat"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		if args.Subcommand != "" {
			fmt.Fprintf(os.Stderr, "\nunknown command: %s\n", args.Subcommand)
			return cli.ExitUsageError
		}
		return cli.ExitSuccess
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := loadConfig(args)
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.GetExitCode(err)
	}

	logger, flush, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s logging disabled: %v\n", cli.WarningStyle.Render("[WARN]"), err)
		logger, flush = zap.NewNop(), func() {}
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokenPath, err := cfg.TokenPath()
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.ExitConfigError
	}
	store := auth.NewFileTokenStore(tokenPath)
	client := api.NewClient(cfg.Server.URL).
		WithTimeout(cfg.Server.Timeout()).
		WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst).
		WithTokenStore(store).
		WithLogger(logger)

	logger.Debug("starting", zap.String("version", Version), zap.String("server", client.BaseURL()))

	if cmd == cli.CmdTUI {
		if err := runTUI(ctx, cfg, client, store, logger); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", cli.ErrorStyle.Render("[ERROR]"), err)
			return cli.ExitGeneralError
		}
		return cli.ExitSuccess
	}

	env := cli.NewEnv(ctx, cfg, client, logger)
	if err := dispatch(cmd, env, args); err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}

// loadConfig applies command-line overrides on top of the file and
// environment.
func loadConfig(args cli.Args) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if args.ServerURL != "" {
		cfg.Server.URL = args.ServerURL
	}
	if args.Verbose {
		cfg.Log.Enabled = true
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

func dispatch(cmd cli.Command, env *cli.Env, args cli.Args) error {
	switch cmd {
	case cli.CmdLogin:
		return cli.HandleLogin(env, args)
	case cli.CmdRegister:
		return cli.HandleRegister(env, args)
	case cli.CmdLogout:
		return cli.HandleLogout(env, args)
	case cli.CmdWhoami:
		return cli.HandleWhoami(env, args)
	case cli.CmdSessions:
		return cli.HandleSessions(env, args)
	case cli.CmdHistory:
		return cli.HandleHistory(env, args)
	case cli.CmdClear:
		return cli.HandleClear(env, args)
	case cli.CmdAsk:
		return cli.HandleAsk(env, args)
	case cli.CmdChat:
		return cli.HandleChat(env, args)
	case cli.CmdExport:
		return cli.HandleExport(env, args)
	case cli.CmdDevServer:
		return cli.HandleDevServer(env, args)
	case cli.CmdConfig:
		return cli.HandleConfig(env, args)
	}
	return fmt.Errorf("unhandled command %d", cmd)
}

// runTUI starts the full-screen interface.
func runTUI(ctx context.Context, cfg *config.Config, client *api.Client, store *auth.FileTokenStore, logger *zap.Logger) error {
	theme := styles.NewTheme(cfg.UI.Theme)
	model := ui.NewModel(ctx, ui.Deps{
		Session: auth.NewSession(client, logger),
		Backend: client,
		Token:   client.Token,
		Theme:   theme,
		Logger:  logger,
		Chat: chat.Options{
			ShowSidebar:    cfg.UI.ShowSidebar,
			RenderMarkdown: cfg.UI.RenderMarkdown,
		},
	})

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if cfg.Auth.WatchToken {
		if err := store.Watch(ctx, func() { p.Send(ui.TokenChangedMsg{}) }); err != nil {
			logger.Warn("token watch disabled", zap.Error(err))
		}
	}

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// Interrupted by a signal.
		return nil
	}
	return err
}
