package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/reportweaver/internal/models"
	"github.com/desertthunder/reportweaver/internal/shared"
	"github.com/desertthunder/reportweaver/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultTUILog = "./tmp/reportweaver-tui.log"

// TUI launches the interactive report form.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.UI.LogPath
	if logPath == "" {
		logPath = defaultTUILog
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if cmd.Bool("debug") {
		shared.SetLogLevel(fileLogger, log.DebugLevel)
	}
	r.SetLogger(fileLogger)

	theme, saveTheme := r.startupTheme()

	ctrl, err := r.newSession()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		Controller: ctrl,
		Theme:      theme,
		SaveTheme:  saveTheme,
		AutoOpen:   cmd.Bool("open") || r.config.UI.OpenBrowser,
		Logger:     r.logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// startupTheme reads the theme once: a stored preference wins over ui.theme.
//
// Without a usable database the TUI still runs; toggles are just not persisted.
func (r *Runner) startupTheme() (models.Theme, func(models.Theme) error) {
	fallback, err := models.ParseTheme(r.config.UI.Theme)
	if err != nil {
		fallback = models.ThemeLight
	}

	prefs, err := r.preferences()
	if err != nil {
		r.logger.Warn("preferences unavailable, theme will not be saved", "error", err)
		return fallback, nil
	}

	theme, err := prefs.Theme(fallback)
	if err != nil {
		r.logger.Warn("failed to read theme preference", "error", err)
		theme = fallback
	}
	return theme, prefs.SetTheme
}
