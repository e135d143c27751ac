package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/reportweaver/internal/session"
	"github.com/desertthunder/reportweaver/internal/shared"
	"github.com/urfave/cli/v3"
)

const watchPollInterval = 250 * time.Millisecond

type statusFrame struct {
	Time   time.Time `json:"time"`
	Status string    `json:"status"`
}

// StatusWatch prints status frames until interrupted.
//
// Without reconnects enabled the command also ends when the backend closes the channel.
func (r *Runner) StatusWatch(ctx context.Context, cmd *cli.Command) error {
	source, err := r.statusSource()
	if err != nil {
		return err
	}

	asJSON := cmd.Bool("json")
	policy := session.ReconnectPolicyFromConfig(r.config.Status)

	ch := session.NewChannel(session.ChannelOpts{
		Source:    source,
		SessionID: shared.GenerateID(),
		Handler: func(text string) {
			var err error
			if asJSON {
				err = r.writeJSON(statusFrame{Time: time.Now().UTC(), Status: text}, false)
			} else {
				err = r.writePlain("%s\n", text)
			}
			if err != nil {
				r.logger.Warn("failed to print status frame", "error", err)
			}
		},
		Reconnect: policy,
		Logger:    r.logger,
	})
	defer ch.Close()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ch.Open(sigCtx); err != nil {
		return err
	}
	r.logger.Info("watching status channel, press ctrl+c to stop")

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sigCtx.Done():
			return nil
		case <-ticker.C:
			if !policy.Enabled && !ch.Connected() {
				return shared.ErrChannelClosed
			}
		}
	}
}
