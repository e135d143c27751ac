package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reportweaver/internal/models"
	"github.com/desertthunder/reportweaver/internal/server"
	"github.com/desertthunder/reportweaver/internal/services"
	"github.com/desertthunder/reportweaver/internal/shared"
	tu "github.com/desertthunder/reportweaver/internal/testing"
)

// syncBuffer is a bytes.Buffer safe for the writes made by listener goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newBackend runs the stub backend and returns a config pointing at it.
func newBackend(t *testing.T, dev shared.DevServerConfig) (*shared.Config, *server.Server) {
	t.Helper()

	srv := server.New(dev, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Stub().Hub().Close()
		ts.Close()
		srv.Stub().Wait()
	})

	config := shared.DefaultConfig()
	config.Server.BaseURL = ts.URL
	config.Status.URL = "ws" + strings.TrimPrefix(ts.URL, "http") + services.StatusPath
	config.Database.Path = filepath.Join(t.TempDir(), "test.db")
	return config, srv
}

// run executes the CLI with args after the program name and a --config that does not exist.
func run(ctx context.Context, t *testing.T, r *Runner, args ...string) error {
	t.Helper()

	argv := append([]string{"reportweaver", "--config", filepath.Join(t.TempDir(), "missing.toml")}, args...)
	return newApp(r).Run(ctx, argv)
}

var submitArgs = []string{
	"submit",
	"--website", "portal.example.com",
	"--username", "jdoe",
	"--password", "s3cret",
	"--email", "jdoe@example.com",
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			jobs := tu.NewMockJobClient()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Jobs:       jobs,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.jobClient() != jobs {
				t.Error("expected injected job client to be used")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with injected database", func(t *testing.T) {
			db, err := shared.NewDatabase(":memory:")
			if err != nil {
				t.Fatalf("failed to open database: %v", err)
			}
			runner := NewRunner(RunnerOpts{DB: db})

			if runner.prefs == nil {
				t.Error("expected preference store to be built")
			}
			if err := runner.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
			if runner.db != nil {
				t.Error("expected database to be released")
			}
		})

		t.Run("builds clients from config", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Status.URL = "ws://example.com/ws"
			runner := NewRunner(RunnerOpts{Config: config})

			if _, ok := runner.jobClient().(*services.JobService); !ok {
				t.Errorf("expected a JobService, got %T", runner.jobClient())
			}

			source, err := runner.statusSource()
			if err != nil {
				t.Fatalf("statusSource() error = %v", err)
			}
			if d, ok := source.(*services.StatusDialer); !ok || d.URL() != "ws://example.com/ws" {
				t.Errorf("unexpected status source %#v", source)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"tui", "submit", "stop", "status", "setup", "prefs", "dev-server"} {
			if !names[want] {
				t.Errorf("command %q not registered", want)
			}
		}
	})
}

func TestBefore(t *testing.T) {
	t.Run("loads config file", func(t *testing.T) {
		backend, _ := newBackend(t, shared.DevServerConfig{})
		path := filepath.Join(t.TempDir(), "config.toml")
		data := "[server]\nbase_url = \"" + backend.Server.BaseURL + "\"\n"
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: output})
		if err := newApp(runner).Run(context.Background(), []string{"reportweaver", "--config", path, "stop"}); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if output.String() != server.StopResponse+"\n" {
			t.Errorf("expected stop to reach the configured backend, got %q", output.String())
		}
		if runner.config.BaseURL() != backend.Server.BaseURL {
			t.Errorf("expected base url from file, got %s", runner.config.BaseURL())
		}
		if runner.configPath != path {
			t.Errorf("expected config path %s, got %s", path, runner.configPath)
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[dev_server]\nfail_status = 302\n"), 0644); err != nil {
			t.Fatal(err)
		}

		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()})
		err := newApp(runner).Run(context.Background(), []string{"reportweaver", "--config", path, "stop"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("debug raises log level", func(t *testing.T) {
		logger := shared.NewLogger(&bytes.Buffer{})
		config, _ := newBackend(t, shared.DevServerConfig{})
		runner := NewRunner(RunnerOpts{Config: config, Logger: logger, Output: &bytes.Buffer{}})

		if err := run(context.Background(), t, runner, "--debug", "stop"); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}
	})

	t.Run("environment overrides base url", func(t *testing.T) {
		backend, _ := newBackend(t, shared.DevServerConfig{})
		t.Setenv(shared.EnvBaseURL, backend.Server.BaseURL)

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: output})
		if err := run(context.Background(), t, runner, "stop"); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if runner.config.BaseURL() != backend.Server.BaseURL {
			t.Errorf("expected env base url, got %s", runner.config.BaseURL())
		}
	})
}

// chattySource sends a frame while the connection is still being set up.
type chattySource struct{ frame string }

func (s chattySource) Dial(ctx context.Context, handler services.StatusHandler) (services.StatusStream, error) {
	handler(s.frame)
	return &idleStream{done: make(chan struct{})}, nil
}

type idleStream struct {
	once sync.Once
	done chan struct{}
}

func (s *idleStream) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *idleStream) Done() <-chan struct{} { return s.done }

func (s *idleStream) Err() error { return nil }

func TestSubmit(t *testing.T) {
	t.Run("prints states until done", func(t *testing.T) {
		config, _ := newBackend(t, shared.DevServerConfig{StepDelay: 5 * time.Millisecond})
		output := &syncBuffer{}
		var opened string
		runner := NewRunner(RunnerOpts{
			Config:  config,
			Logger:  shared.DiscardLogger(),
			Output:  output,
			OpenURL: func(u string) error { opened = u; return nil },
		})

		args := append(append([]string{}, submitArgs...), "--format", "json", "--open")
		if err := run(context.Background(), t, runner, args...); err != nil {
			t.Fatalf("submit error = %v", err)
		}

		out := output.String()
		for _, want := range []string{`"phase":"submitting"`, `"phase":"done"`, `"document_url":"https://docs.google.com/document/d/`} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if !strings.HasPrefix(opened, "https://docs.google.com/document/d/") {
			t.Errorf("expected document to be opened, got %q", opened)
		}
	})

	t.Run("status frame before submit does not end the session", func(t *testing.T) {
		jobs := tu.NewMockJobClient()
		output := &syncBuffer{}
		runner := NewRunner(RunnerOpts{
			Jobs:   jobs,
			Source: chattySource{frame: "Cleaning up previous run"},
			Logger: shared.DiscardLogger(),
			Output: output,
		})

		go func() {
			<-jobs.SubmitStarted()
			time.Sleep(20 * time.Millisecond)
			jobs.Resolve(models.CompletedResult("https://docs.google.com/document/d/abc123"))
		}()

		if err := run(context.Background(), t, runner, submitArgs...); err != nil {
			t.Fatalf("submit error = %v", err)
		}

		out := output.String()
		for _, want := range []string{"[idle] Cleaning up previous run", "[done]"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "[error]") {
			t.Errorf("submit was aborted:\n%s", out)
		}
	})

	t.Run("backend rejection is an error", func(t *testing.T) {
		config, _ := newBackend(t, shared.DevServerConfig{FailStatus: http.StatusUnauthorized})
		output := &syncBuffer{}
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger(), Output: output})

		err := run(context.Background(), t, runner, submitArgs...)
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "Unauthorized") {
			t.Errorf("expected unauthorized error, got %v", err)
		}
		if !strings.Contains(output.String(), "[error]") {
			t.Errorf("expected error state in output:\n%s", output.String())
		}
	})

	t.Run("missing password", func(t *testing.T) {
		t.Setenv("REPORTWEAVER_PASSWORD", "")
		jobs := tu.NewMockJobClient()
		runner := NewRunner(RunnerOpts{Jobs: jobs, Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})

		err := run(context.Background(), t, runner,
			"submit", "--website", "w", "--username", "u", "--email", "e@example.com")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if len(jobs.Submits()) != 0 {
			t.Error("submit reached the backend")
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Jobs: tu.NewMockJobClient(), Logger: shared.DiscardLogger()})

		args := append(append([]string{}, submitArgs...), "--format", "yaml")
		if err := run(context.Background(), t, runner, args...); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("interrupt stops a running job", func(t *testing.T) {
		config, _ := newBackend(t, shared.DevServerConfig{Async: true, StepDelay: 50 * time.Millisecond})
		output := &syncBuffer{}
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger(), Output: output})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) && !strings.Contains(output.String(), "[running]") {
				time.Sleep(5 * time.Millisecond)
			}
			cancel()
		}()

		if err := run(ctx, t, runner, submitArgs...); err != nil {
			t.Fatalf("submit error = %v", err)
		}
		if !strings.Contains(output.String(), "[idle] "+server.StopResponse) {
			t.Errorf("expected stop response in output:\n%s", output.String())
		}
	})
}

func TestStop(t *testing.T) {
	t.Run("prints the backend answer", func(t *testing.T) {
		config, _ := newBackend(t, shared.DevServerConfig{})
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger(), Output: output})

		if err := run(context.Background(), t, runner, "stop"); err != nil {
			t.Fatalf("stop error = %v", err)
		}
		if output.String() != server.StopResponse+"\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("unreachable backend", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		config := shared.DefaultConfig()
		config.Server.BaseURL = ts.URL
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger(), Output: output})

		err := run(context.Background(), t, runner, "stop")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(output.String(), services.CancelFallback) {
			t.Errorf("expected fallback text, got %q", output.String())
		}
	})
}

func TestStatusWatch(t *testing.T) {
	t.Run("prints frames until interrupted", func(t *testing.T) {
		config, srv := newBackend(t, shared.DevServerConfig{})
		output := &syncBuffer{}
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger(), Output: output})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errCh := make(chan error, 1)
		go func() { errCh <- run(ctx, t, runner, "status", "watch", "--json") }()

		tu.Eventually(t, 2*time.Second, func() bool { return srv.Stub().Hub().Count() == 1 }, "watcher connected")
		srv.Stub().Hub().Broadcast("Logging in...")
		tu.Eventually(t, 2*time.Second, func() bool {
			return strings.Contains(output.String(), `"status":"Logging in..."`)
		}, "frame printed")

		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("watch error = %v", err)
		}
	})

	t.Run("ends when the backend closes the channel", func(t *testing.T) {
		config, srv := newBackend(t, shared.DevServerConfig{})
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger(), Output: &syncBuffer{}})

		errCh := make(chan error, 1)
		go func() { errCh <- run(context.Background(), t, runner, "status", "watch") }()

		tu.Eventually(t, 2*time.Second, func() bool { return srv.Stub().Hub().Count() == 1 }, "watcher connected")
		srv.Stub().Hub().Close()

		select {
		case err := <-errCh:
			if !errors.Is(err, shared.ErrChannelClosed) {
				t.Errorf("expected ErrChannelClosed, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("watch did not end")
		}
	})

	t.Run("unreachable backend", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		config := shared.DefaultConfig()
		config.Server.BaseURL = ts.URL
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger()})

		if err := run(context.Background(), t, runner, "status", "watch"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestPrefs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prefs.db")
	newRunner := func(output *bytes.Buffer) *Runner {
		config := shared.DefaultConfig()
		config.Database.Path = dbPath
		config.UI.Theme = "light"
		return NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger(), Output: output})
	}

	t.Run("defaults to config theme", func(t *testing.T) {
		output := &bytes.Buffer{}
		if err := run(context.Background(), t, newRunner(output), "prefs", "theme"); err != nil {
			t.Fatalf("prefs theme error = %v", err)
		}
		if output.String() != "light\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("set persists", func(t *testing.T) {
		output := &bytes.Buffer{}
		if err := run(context.Background(), t, newRunner(output), "prefs", "theme", "dark"); err != nil {
			t.Fatalf("prefs theme dark error = %v", err)
		}
		if !strings.Contains(output.String(), "Theme set to dark") {
			t.Errorf("unexpected output %q", output.String())
		}

		output.Reset()
		if err := run(context.Background(), t, newRunner(output), "prefs", "theme"); err != nil {
			t.Fatalf("prefs theme error = %v", err)
		}
		if output.String() != string(models.ThemeDark)+"\n" {
			t.Errorf("expected stored theme, got %q", output.String())
		}
	})

	t.Run("rejects unknown theme", func(t *testing.T) {
		err := run(context.Background(), t, newRunner(&bytes.Buffer{}), "prefs", "theme", "solarized")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("list", func(t *testing.T) {
		output := &bytes.Buffer{}
		if err := run(context.Background(), t, newRunner(output), "prefs", "list"); err != nil {
			t.Fatalf("prefs list error = %v", err)
		}
		if output.String() != "theme = dark\n" {
			t.Errorf("unexpected output %q", output.String())
		}

		output.Reset()
		if err := run(context.Background(), t, newRunner(output), "prefs", "list", "--json"); err != nil {
			t.Fatalf("prefs list --json error = %v", err)
		}
		if !strings.Contains(output.String(), `"key": "theme"`) {
			t.Errorf("unexpected JSON %s", output.String())
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})

		if err := newApp(runner).Run(context.Background(), []string{"reportweaver", "-c", path, "setup", "config"}); err != nil {
			t.Fatalf("setup config error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected config file: %v", err)
		}

		runner = NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})
		err := newApp(runner).Run(context.Background(), []string{"reportweaver", "-c", path, "setup", "config"})
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected already exists error, got %v", err)
		}
	})

	t.Run("database", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")

		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "data", "reportweaver.db")
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger()})

		if err := newApp(runner).Run(context.Background(), []string{"reportweaver", "-c", configPath, "setup", "database"}); err != nil {
			t.Fatalf("setup database error = %v", err)
		}
		if _, err := os.Stat(config.Database.Path); err != nil {
			t.Errorf("expected database file: %v", err)
		}
		if _, err := os.Stat(configPath); err != nil {
			t.Errorf("expected config file to be created: %v", err)
		}
	})

	t.Run("database rollback", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "reportweaver.db")
		configPath := filepath.Join(dir, "config.toml")
		if err := os.WriteFile(configPath, []byte("[database]\npath = \""+filepath.ToSlash(dbPath)+"\"\n"), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		setup := func(args ...string) (string, error) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: output})
			argv := append([]string{"reportweaver", "-c", configPath, "setup", "database"}, args...)
			err := newApp(runner).Run(context.Background(), argv)
			return output.String(), err
		}

		if _, err := setup(); err != nil {
			t.Fatalf("setup database error = %v", err)
		}

		out, err := setup("--rollback")
		if err != nil {
			t.Fatalf("rollback error = %v", err)
		}
		if !strings.Contains(out, "Rolled back") {
			t.Errorf("unexpected output %q", out)
		}

		db, err := shared.NewDatabase(dbPath)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		var applied int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
			t.Fatalf("failed to count migrations: %v", err)
		}
		if applied != 0 {
			t.Errorf("expected no applied migrations, got %d", applied)
		}

		if _, err := setup("--rollback"); err == nil {
			t.Error("expected an error with nothing to roll back")
		}
	})
}
