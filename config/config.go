// Package config loads the host process configuration.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stevemurr/simple-doc-store/pool"
	"github.com/stevemurr/simple-doc-store/store"
)

// Database holds the relational backend settings.
type Database struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Pass            string        `yaml:"pass"`
	Name            string        `yaml:"db"`
	MaxConns        int           `yaml:"max_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type Config struct {
	Host            string   `yaml:"host"`
	Port            string   `yaml:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	LogLevel        string   `yaml:"log_level"`
	Backend         string   `yaml:"backend"`
	DataDir         string   `yaml:"data_dir"`
	Collections     []string `yaml:"collections"`
	SerializeWrites bool     `yaml:"serialize_writes"`
	Database        Database `yaml:"database"`
}

// DefaultCollections are the collections the bot has always kept.
var DefaultCollections = []string{"userData", "nodeStatus", "userPrem", "redeemCodes", "nodePing", "nodeServers"}

// Load reads the YAML file at path, if path is not empty, then applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v := os.Getenv(key); v != "" {
			*dst = splitList(v)
		}
	}
	str("HOST", &cfg.Host)
	str("PORT", &cfg.Port)
	list("ALLOWED_ORIGINS", &cfg.AllowedOrigins)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("STORE_BACKEND", &cfg.Backend)
	str("DATA_DIR", &cfg.DataDir)
	list("COLLECTIONS", &cfg.Collections)
	str("DB_HOST", &cfg.Database.Host)
	str("DB_USER", &cfg.Database.User)
	str("DB_PASS", &cfg.Database.Pass)
	str("DB_NAME", &cfg.Database.Name)

	if v := os.Getenv("DB_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT value: %w", err)
		}
		cfg.Database.Port = n
	}
	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_MAX_CONNS value: %w", err)
		}
		cfg.Database.MaxConns = n
	}
	if v := os.Getenv("SERIALIZE_WRITES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SERIALIZE_WRITES value: %w", err)
		}
		cfg.SerializeWrites = b
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Backend == "" {
		cfg.Backend = "sqlite"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if len(cfg.Collections) == 0 {
		cfg.Collections = DefaultCollections
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = pool.DefaultMaxConns
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch c.Backend {
	case "sqlite", "json", "memory":
	case "mysql", "postgres":
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required for the %s backend (set via environment or config file)", c.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Backend)
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("max_conns must not be negative")
	}
	for _, name := range c.Collections {
		if err := store.ValidateCollection(name); err != nil {
			return err
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// StoreOptions converts the configuration for store.New.
func (c *Config) StoreOptions() store.Options {
	opts := store.Options{
		Backend: c.Backend,
		DataDir: c.DataDir,
		Pool: pool.Config{
			Host:            c.Database.Host,
			Port:            c.Database.Port,
			User:            c.Database.User,
			Password:        c.Database.Pass,
			Database:        c.Database.Name,
			MaxConns:        c.Database.MaxConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
	}
	if c.Backend == "sqlite" {
		// The SQLite file lives in DataDir.
		opts.Pool.Database = ""
	}
	return opts
}
