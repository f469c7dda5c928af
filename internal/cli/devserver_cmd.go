// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/devserver"
)

const shutdownTimeout = 5 * time.Second

// HandleDevServer runs the in-memory development backend until the context
// is cancelled.
func HandleDevServer(env *Env, args Args) error {
	addr := args.Addr
	if addr == "" {
		addr = env.Config.Dev.Listen
	}

	srv, err := devserver.New(
		devserver.WithSecret([]byte(env.Config.Dev.Secret)),
		devserver.WithLogger(env.Logger),
		devserver.WithSessionHeader(true),
	)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serveDev(env, args, srv, ln)
}

func serveDev(env *Env, args Args, srv *devserver.Server, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(ln) }()

	env.Logger.Info("dev server listening", zap.String("addr", ln.Addr().String()))
	env.status(args, "%s http://%s/api\n", SuccessStyle.Render("开发服务器已启动:"), ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-env.Ctx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	env.Logger.Info("dev server stopped")
	return nil
}
