// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// newApp builds the root command around r.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "reportweaver",
		Usage:    "Generate site reports as Google Docs through the report backend",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}

// globalFlags are inherited by every subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive report form.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive report form",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the document in the browser as soon as it is ready",
			},
		},
		Action: r.TUI,
	}
}

// submitCommand runs a report session without the TUI.
func submitCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Submit a report job and stream its status",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "website",
				Aliases:  []string{"w"},
				Usage:    "Website name to log in to",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "SSO username",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "SSO password (falls back to REPORTWEAVER_PASSWORD)",
				Sources: cli.EnvVars("REPORTWEAVER_PASSWORD"),
			},
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Email address that receives the document",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json or markdown",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the document in the browser when done",
			},
		},
		Action: r.Submit,
	}
}

// stopCommand asks the backend to stop all jobs.
func stopCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stop",
		Usage:  "Stop all running report jobs",
		Action: r.Stop,
	}
}

// statusCommand handles status channel operations
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Status channel operations",
		Commands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "Print status frames until interrupted",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print each frame as a JSON object",
					},
				},
				Action: r.StatusWatch,
			},
		},
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write the default configuration file",
				Action: r.SetupConfig,
			},
		},
	}
}

// prefsCommand handles stored preferences
func prefsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "prefs",
		Usage: "Read and change stored preferences",
		Commands: []*cli.Command{
			{
				Name:  "theme",
				Usage: "Print the theme, or set it to light or dark",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "theme",
					},
				},
				Action: r.PrefsTheme,
			},
			{
				Name:  "list",
				Usage: "List every stored preference",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PrefsList,
			},
		},
	}
}

// devServerCommand runs the local stub backend.
func devServerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dev-server",
		Usage: "Run a local stub of the report backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to dev_server.host:dev_server.port)",
			},
		},
		Action: r.DevServer,
	}
}
