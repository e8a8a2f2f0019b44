package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Remote backends
const (
	BackendNone   = "none"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds runtime settings. Values come from defaults, then an
// optional YAML file, then NOVEL_* environment variables.
type Config struct {
	DataDir       string        `yaml:"data_dir" env:"NOVEL_DATA_DIR"`
	SeedPath      string        `yaml:"seed" env:"NOVEL_SEED"`
	RemoteBackend string        `yaml:"remote_backend" env:"NOVEL_REMOTE_BACKEND"`
	RedisAddr     string        `yaml:"redis_addr" env:"NOVEL_REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"NOVEL_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"NOVEL_REDIS_DB"`
	RemoteSQLite  string        `yaml:"remote_sqlite" env:"NOVEL_REMOTE_SQLITE"`
	Identity      string        `yaml:"identity" env:"NOVEL_IDENTITY"`
	ChoiceDelay   time.Duration `yaml:"choice_delay" env:"NOVEL_CHOICE_DELAY"`
	FontSize      float64       `yaml:"font_size" env:"NOVEL_FONT_SIZE"`
	Listen        string        `yaml:"listen" env:"NOVEL_LISTEN"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	dataDir := ".novel-session"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".novel-session")
	}
	return &Config{
		DataDir:       dataDir,
		RemoteBackend: BackendNone,
		RedisAddr:     "127.0.0.1:6379",
		ChoiceDelay:   400 * time.Millisecond,
		FontSize:      16,
		Listen:        "127.0.0.1:8080",
	}
}

// ConfigOption overrides a loaded value before paths are expanded and
// derived defaults are filled in
type ConfigOption func(*Config)

// WithDataDir overrides the data dir when dir is non-empty
func WithDataDir(dir string) ConfigOption {
	return func(c *Config) {
		if dir != "" {
			c.DataDir = dir
		}
	}
}

// WithIdentity overrides the sync identity when id is non-empty
func WithIdentity(id string) ConfigOption {
	return func(c *Config) {
		if id != "" {
			c.Identity = id
		}
	}
}

// LoadConfig builds the configuration. path may be empty; a missing .env
// file is not an error, a missing explicit config file is.
func LoadConfig(path string, opts ...ConfigOption) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		LogWarn("Failed to load .env: %v", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.SeedPath = expandHome(cfg.SeedPath)
	cfg.RemoteSQLite = expandHome(cfg.RemoteSQLite)
	if cfg.RemoteBackend == "" {
		cfg.RemoteBackend = BackendNone
	}
	if cfg.RemoteBackend == BackendSQLite && cfg.RemoteSQLite == "" {
		cfg.RemoteSQLite = filepath.Join(cfg.DataDir, "remote.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and backend names
func (c *Config) Validate() error {
	switch c.RemoteBackend {
	case BackendNone, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("unknown remote backend %q (want none, redis or sqlite)", c.RemoteBackend)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	if c.ChoiceDelay < 0 {
		return fmt.Errorf("choice delay must not be negative")
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("font size must be positive")
	}
	return nil
}

// SyncEnabled reports whether progress should be reconciled with a remote
func (c *Config) SyncEnabled() bool {
	return c.RemoteBackend != BackendNone && c.Identity != ""
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
