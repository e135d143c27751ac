package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reportweaver/internal/repositories"
	"github.com/desertthunder/reportweaver/internal/services"
	"github.com/desertthunder/reportweaver/internal/session"
	"github.com/desertthunder/reportweaver/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Backend clients and the database are built lazily from the loaded config, so commands that never touch them
// (setup config, dev-server) work without a reachable backend.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	openURL    func(string) error

	jobs   services.JobClient
	source services.StatusSource
	db     *sql.DB
	prefs  *repositories.PreferenceRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	// OpenURL opens document links. Defaults to [shared.OpenBrowser].
	OpenURL func(string) error
	// Jobs and Source replace the clients built from config.
	Jobs   services.JobClient
	Source services.StatusSource
	// DB replaces the database opened from config.
	DB *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		openURL:    opts.OpenURL,
		jobs:       opts.Jobs,
		source:     opts.Source,
		db:         opts.DB,
	}
	if r.db != nil {
		r.prefs = repositories.NewPreferenceRepository(r.db)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		tuiCommand, submitCommand, stopCommand, statusCommand, setupCommand, prefsCommand, devServerCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the config file named by --config, applies environment overrides and the log level.
//
// A missing file is not an error: the embedded defaults are used.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path != "" {
		r.configPath = path
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
			r.logger.Debug("loaded config", "path", path)
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}

	r.config.ApplyEnv()
	return ctx, r.config.Validate()
}

// After releases anything the commands opened.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close closes the database if the runner opened one.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.prefs = nil, nil
	return err
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// jobClient returns the injected client or builds one from the [server] config section.
func (r *Runner) jobClient() services.JobClient {
	if r.jobs != nil {
		return r.jobs
	}

	httpClient := r.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: r.config.Server.SubmitTimeout}
	}

	r.jobs = services.NewJobService(services.JobServiceOpts{
		BaseURL:       r.config.BaseURL(),
		HTTPClient:    httpClient,
		CancelTimeout: r.config.Server.CancelTimeout,
		Logger:        r.logger,
	})
	return r.jobs
}

// statusSource returns the injected source or a websocket dialer for the [status] config section.
func (r *Runner) statusSource() (services.StatusSource, error) {
	if r.source != nil {
		return r.source, nil
	}

	url, err := r.config.StatusURL()
	if err != nil {
		return nil, err
	}

	r.source = services.NewStatusDialer(url, nil, r.logger)
	return r.source, nil
}

// newSession builds a controller wired to the backend.
func (r *Runner) newSession() (*session.Controller, error) {
	source, err := r.statusSource()
	if err != nil {
		return nil, err
	}

	return session.New(session.Opts{
		Client:    r.jobClient(),
		Source:    source,
		Reconnect: session.ReconnectPolicyFromConfig(r.config.Status),
		Logger:    r.logger,
	}), nil
}

// preferences opens the database on first use and returns the preference store.
func (r *Runner) preferences() (*repositories.PreferenceRepository, error) {
	if r.prefs != nil {
		return r.prefs, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	r.db = db
	r.prefs = repositories.NewPreferenceRepository(db)
	return r.prefs, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
