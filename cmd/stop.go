package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/reportweaver/internal/services"
	"github.com/desertthunder/reportweaver/internal/shared"
	"github.com/urfave/cli/v3"
)

// Stop sends a single stop request and prints the backend's answer.
func (r *Runner) Stop(ctx context.Context, cmd *cli.Command) error {
	id := shared.GenerateID()
	r.logger.Info("stopping report jobs", "session_id", id)

	text := r.jobClient().CancelJob(services.WithSessionID(ctx, id))
	if err := r.writePlain("%s\n", text); err != nil {
		return err
	}

	if text == services.CancelFallback {
		return fmt.Errorf("%w: stop request did not succeed", shared.ErrAPIRequest)
	}
	return nil
}
