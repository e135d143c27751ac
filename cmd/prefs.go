package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/reportweaver/internal/models"
	"github.com/desertthunder/reportweaver/internal/shared"
	"github.com/urfave/cli/v3"
)

// PrefsTheme prints the stored theme, or stores a new one when an argument is given.
func (r *Runner) PrefsTheme(ctx context.Context, cmd *cli.Command) error {
	prefs, err := r.preferences()
	if err != nil {
		return err
	}

	arg := cmd.StringArg("theme")
	if arg == "" {
		fallback, err := models.ParseTheme(r.config.UI.Theme)
		if err != nil {
			fallback = models.ThemeLight
		}

		theme, err := prefs.Theme(fallback)
		if err != nil {
			return fmt.Errorf("failed to read theme: %w", err)
		}
		return r.writePlain("%s\n", theme)
	}

	theme, err := models.ParseTheme(arg)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	if err := prefs.SetTheme(theme); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}

	r.logger.Info("theme saved", "theme", theme)
	return r.writePlain("✓ Theme set to %s\n", theme)
}

// PrefsList prints every stored preference.
func (r *Runner) PrefsList(ctx context.Context, cmd *cli.Command) error {
	prefs, err := r.preferences()
	if err != nil {
		return err
	}

	list, err := prefs.List()
	if err != nil {
		return fmt.Errorf("failed to list preferences: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	if len(list) == 0 {
		return r.writePlain("No preferences stored\n")
	}
	for _, p := range list {
		if err := r.writePlain("%s = %s\n", p.Key, p.Value); err != nil {
			return err
		}
	}
	return nil
}
