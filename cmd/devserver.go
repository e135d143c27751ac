package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/reportweaver/internal/server"
	"github.com/urfave/cli/v3"
)

// DevServer runs the stub backend until interrupted.
func (r *Runner) DevServer(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.DevServer.Addr()
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("starting dev server", "addr", addr, "async", r.config.DevServer.Async)
	return server.New(r.config.DevServer, r.logger).ListenAndServe(sigCtx, addr)
}
