package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/reportweaver/internal/formatter"
	"github.com/desertthunder/reportweaver/internal/models"
	"github.com/desertthunder/reportweaver/internal/session"
	"github.com/desertthunder/reportweaver/internal/shared"
	"github.com/urfave/cli/v3"
)

// Submit runs one report session headlessly.
//
// Every state change is printed in the chosen format. The command returns once the session is Done, failed, or was
// returned to idle after the submit; an interrupt stops the job on the backend first.
func (r *Runner) Submit(ctx context.Context, cmd *cli.Command) error {
	creds := models.Credentials{
		WebsiteName: cmd.String("website"),
		SSOUsername: cmd.String("username"),
		Password:    cmd.String("password"),
		Email:       cmd.String("email"),
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMissingCredentials, err)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ctrl, err := r.newSession()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	writer := formatter.NewStateWriter(r.output, format)
	finished := make(chan models.SessionState, 1)
	// status frames from other sessions can arrive before the submit leaves Idle
	started := false
	ctrl.Subscribe(func(s models.SessionState) {
		if err := writer.Write(s); err != nil {
			r.logger.Warn("failed to print state", "error", err)
		}
		if s.Phase != models.Idle {
			started = true
		}
		switch {
		case s.Phase == models.Done, s.Phase == models.Error, s.Phase == models.Idle && started:
			select {
			case finished <- s:
			default:
			}
		}
	})

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Open(sigCtx); err != nil {
		r.logger.Warn("continuing without live status updates", "error", err)
	}

	// the submit outlives an interrupt; the stop request is what ends it on the backend
	submitCtx, cancelSubmit := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelSubmit()

	errCh := make(chan error, 1)
	go func() {
		errCh <- ctrl.Submit(submitCtx, creds)
	}()

	var final models.SessionState
	select {
	case final = <-finished:
	case err := <-errCh:
		if err != nil {
			return err
		}
		final = r.awaitFinish(sigCtx, ctrl, finished)
	case <-sigCtx.Done():
		final = r.interrupt(ctx, ctrl)
	}

	return r.finish(final, cmd.Bool("open"))
}

// awaitFinish waits out a running job until it ends or the user interrupts.
func (r *Runner) awaitFinish(ctx context.Context, ctrl *session.Controller, finished <-chan models.SessionState) models.SessionState {
	if s := ctrl.State(); s.Phase != models.Running {
		return s
	}

	r.logger.Info("job is running, press ctrl+c to stop it")
	select {
	case s := <-finished:
		return s
	case <-ctx.Done():
		return r.interrupt(ctx, ctrl)
	}
}

// interrupt stops the job with close intent.
func (r *Runner) interrupt(ctx context.Context, ctrl *session.Controller) models.SessionState {
	r.logger.Info("interrupted, stopping job")
	ctrl.Cancel(context.WithoutCancel(ctx), true)
	return ctrl.State()
}

func (r *Runner) finish(s models.SessionState, open bool) error {
	switch s.Phase {
	case models.Error:
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, s.StatusText)
	case models.Done:
		if open && s.HasDocument() {
			if err := r.openURL(s.DocumentURL); err != nil {
				r.logger.Warn("failed to open browser", "url", s.DocumentURL, "error", err)
			}
		}
	}
	return nil
}
