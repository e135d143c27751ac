package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvBaseURL overrides [ServerConfig.BaseURL] when set.
const EnvBaseURL = "REPORTWEAVER_BASE_URL"

const fallbackBaseURL = "http://localhost:8080"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Status    StatusConfig    `toml:"status"`
	Database  DatabaseConfig  `toml:"database"`
	UI        UIConfig        `toml:"ui"`
	DevServer DevServerConfig `toml:"dev_server"`
}

// ServerConfig points the job client at the report backend.
type ServerConfig struct {
	BaseURL       string        `toml:"base_url"`
	SubmitTimeout time.Duration `toml:"submit_timeout"`
	CancelTimeout time.Duration `toml:"cancel_timeout"`
}

// StatusConfig configures the websocket status channel.
type StatusConfig struct {
	Path              string        `toml:"path"`
	URL               string        `toml:"url"`
	Reconnect         bool          `toml:"reconnect"`
	MaxReconnects     int           `toml:"max_reconnects"`
	ReconnectInterval time.Duration `toml:"reconnect_interval"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// UIConfig holds presentation defaults. Theme is read once at startup; a stored preference wins over it.
type UIConfig struct {
	Theme       string `toml:"theme"`
	OpenBrowser bool   `toml:"open_browser"`
	LogPath     string `toml:"log_path"`
}

// DevServerConfig contains settings for the local stub backend.
type DevServerConfig struct {
	Host       string        `toml:"host"`
	Port       int           `toml:"port"`
	StepDelay  time.Duration `toml:"step_delay"`
	StopDelay  time.Duration `toml:"stop_delay"`
	Async      bool          `toml:"async"`
	FailStatus int           `toml:"fail_status"`
}

// Addr returns host:port for the dev server listener.
func (d DevServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides values from the environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.Server.BaseURL = v
	}
}

// BaseURL returns the backend base URL without a trailing slash, falling back to localhost.
func (c *Config) BaseURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if base == "" {
		return fallbackBaseURL
	}
	return base
}

// StatusURL returns the websocket URL for the status channel.
//
// An explicit status.url wins; otherwise the scheme of the base URL is swapped (http→ws, https→wss) and status.path appended.
func (c *Config) StatusURL() (string, error) {
	if c.Status.URL != "" {
		return c.Status.URL, nil
	}

	u, err := url.Parse(c.BaseURL())
	if err != nil {
		return "", fmt.Errorf("%w: base_url: %v", ErrInvalidConfig, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: unsupported base_url scheme %q", ErrInvalidConfig, u.Scheme)
	}

	path := c.Status.Path
	if path == "" {
		path = "/ws/selenium-status"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = strings.TrimRight(u.Path, "/") + path

	return u.String(), nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.BaseURL()); err != nil {
		return fmt.Errorf("%w: base_url %q: %v", ErrInvalidConfig, c.Server.BaseURL, err)
	}
	if c.Server.SubmitTimeout < 0 || c.Server.CancelTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	if c.Status.Reconnect && c.Status.MaxReconnects <= 0 {
		return fmt.Errorf("%w: max_reconnects must be positive when reconnect is enabled", ErrInvalidConfig)
	}
	if c.DevServer.FailStatus != 0 && (c.DevServer.FailStatus < 400 || c.DevServer.FailStatus > 599) {
		return fmt.Errorf("%w: fail_status must be a 4xx or 5xx code", ErrInvalidConfig)
	}
	if c.UI.Theme != "" && c.UI.Theme != "light" && c.UI.Theme != "dark" {
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidConfig, c.UI.Theme)
	}
	return nil
}
