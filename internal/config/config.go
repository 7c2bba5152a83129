package config

import (
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type FirebaseConfig struct {
	APIKey string `yaml:"api_key" env:"SUMMARIES_FIREBASE_API_KEY"`
}

type Config struct {
	BackendURL        string         `yaml:"backend_url" env:"BACKEND_URL"`
	RequestTimeout    string         `yaml:"request_timeout" env:"SUMMARIES_REQUEST_TIMEOUT"`
	Timezone          string         `yaml:"timezone" env:"SUMMARIES_TIMEZONE"`
	LoadMoreThreshold float64        `yaml:"load_more_threshold,omitempty"`
	LogLevel          string         `yaml:"log_level" env:"SUMMARIES_LOG_LEVEL"`
	Firebase          FirebaseConfig `yaml:"firebase"`
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Location resolves the display timezone, falling back to Asia/Seoul.
func (c *Config) Location() *time.Location {
	name := c.Timezone
	if name == "" {
		name = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Threshold returns the load-more lookahead as a fraction of the visible rows.
func (c *Config) Threshold() float64 {
	if c.LoadMoreThreshold <= 0 || c.LoadMoreThreshold > 1 {
		return 0.5
	}
	return c.LoadMoreThreshold
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AuthEnabled reports whether a Firebase API key is available for sign-in.
func (c *Config) AuthEnabled() bool {
	return c.Firebase.APIKey != ""
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "summaries", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "summaries", "summaries.db")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, "summaries", "summaries.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the YAML config at path (or the default location), then
// overlays .env and process environment values on top of it.
func Load(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if cfg.BackendURL == "" {
		return fmt.Errorf("backend_url is required (set it in the config file or BACKEND_URL)")
	}
	u, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return fmt.Errorf("backend_url: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend_url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("backend_url: missing host")
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	return nil
}
