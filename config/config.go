// ABOUTME: Layered configuration for irdesk
// ABOUTME: Defaults, then .env, then the YAML file, then IRDESK_* environment variables
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/confideleapcrm/irdesk/db"
)

const envPrefix = "irdesk"

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"     envconfig:"CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" envconfig:"CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url"  envconfig:"REDIRECT_URL"`
}

type Config struct {
	APIBaseURL     string        `yaml:"api_base_url"    envconfig:"API_BASE_URL"`
	RefreshPath    string        `yaml:"refresh_path"    envconfig:"REFRESH_PATH"`
	LoginPath      string        `yaml:"login_path"      envconfig:"LOGIN_PATH"`
	DatabasePath   string        `yaml:"db_path"         envconfig:"DB_PATH"`
	LogLevel       string        `yaml:"log_level"       envconfig:"LOG_LEVEL"`
	LogFormat      string        `yaml:"log_format"      envconfig:"LOG_FORMAT"`
	SearchDebounce time.Duration `yaml:"search_debounce" envconfig:"SEARCH_DEBOUNCE"`
	PageSize       int           `yaml:"page_size"       envconfig:"PAGE_SIZE"`
	SettingsURL    string        `yaml:"settings_url"    envconfig:"SETTINGS_URL"`
	Google         GoogleConfig  `yaml:"google"          envconfig:"GOOGLE"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIBaseURL:     "http://localhost:8080",
		RefreshPath:    "/api/auth/refresh",
		LoginPath:      "/api/auth/login",
		DatabasePath:   db.DefaultPath(),
		LogLevel:       "info",
		LogFormat:      "text",
		SearchDebounce: 250 * time.Millisecond,
		PageSize:       25,
		Google: GoogleConfig{
			RedirectURL: "http://localhost:8765/oauth/callback",
		},
	}
}

// DefaultPath is the YAML file read when no explicit path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "irdesk", "config.yaml")
}

// Load builds the configuration. A missing file at the default path is
// ignored; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	buf, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_base_url %q must be an absolute URL", c.APIBaseURL)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("search_debounce must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// GoogleConfigured reports whether local Google OAuth can run.
func (c *Config) GoogleConfigured() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

// NewLogger builds the slog logger described by the configuration.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}
