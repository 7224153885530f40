package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stevemurr/simple-doc-store/config"
	"github.com/stevemurr/simple-doc-store/pool"
)

// clearEnv blanks every variable Load reads; blank counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HOST", "PORT", "ALLOWED_ORIGINS", "LOG_LEVEL", "STORE_BACKEND", "DATA_DIR",
		"COLLECTIONS", "SERIALIZE_WRITES", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASS",
		"DB_NAME", "DB_MAX_CONNS",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr %s", cfg.Addr())
	}
	if cfg.Backend != "sqlite" || cfg.DataDir != "./data" {
		t.Fatalf("unexpected backend defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Collections, config.DefaultCollections) {
		t.Fatalf("unexpected collections %v", cfg.Collections)
	}
	if cfg.Database.MaxConns != pool.DefaultMaxConns {
		t.Fatalf("expected max conns %d, got %d", pool.DefaultMaxConns, cfg.Database.MaxConns)
	}
	if l, _ := cfg.Level(); l != slog.LevelInfo {
		t.Fatalf("expected info level, got %v", l)
	}
}

func TestAddrIPv6(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOST", "::1")
	t.Setenv("PORT", "9090")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr() != "[::1]:9090" {
		t.Fatalf("unexpected addr %s", cfg.Addr())
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
port: "9090"
backend: mysql
collections: [userData, codes]
serialize_writes: true
database:
  host: db.internal
  port: 3307
  user: bot
  pass: secret
  db: danbot
  max_conns: 4
  conn_max_lifetime: 5m
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9090" || cfg.Backend != "mysql" || !cfg.SerializeWrites {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Collections, []string{"userData", "codes"}) {
		t.Fatalf("unexpected collections %v", cfg.Collections)
	}
	opts := cfg.StoreOptions()
	want := pool.Config{
		Host:            "db.internal",
		Port:            3307,
		User:            "bot",
		Password:        "secret",
		Database:        "danbot",
		MaxConns:        4,
		ConnMaxLifetime: 5 * time.Minute,
	}
	if opts.Backend != "mysql" || opts.Pool != want {
		t.Fatalf("unexpected store options %+v", opts)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "backend: postgres\ndatabase:\n  db: fromfile\n  port: 5432\n")
	t.Setenv("DB_NAME", "fromenv")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("COLLECTIONS", "a, b ,,c")
	t.Setenv("SERIALIZE_WRITES", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Name != "fromenv" || cfg.Database.Port != 6543 {
		t.Fatalf("env did not override: %+v", cfg.Database)
	}
	if !reflect.DeepEqual(cfg.Collections, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected collections %v", cfg.Collections)
	}
	if !cfg.SerializeWrites {
		t.Fatal("expected serialized writes")
	}
	if l, _ := cfg.Level(); l != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", l)
	}
}

func TestSQLiteIgnoresDBName(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_NAME", "danbot")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.StoreOptions().Pool.Database; got != "" {
		t.Fatalf("sqlite must use the data dir, got database %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{"missing file", nil, "/nonexistent/config.yaml"},
		{"bad port", map[string]string{"DB_PORT": "abc"}, ""},
		{"bad max conns", map[string]string{"DB_MAX_CONNS": "many"}, ""},
		{"bad bool", map[string]string{"SERIALIZE_WRITES": "perhaps"}, ""},
		{"unknown backend", map[string]string{"STORE_BACKEND": "redis"}, ""},
		{"mysql without db", map[string]string{"STORE_BACKEND": "mysql"}, ""},
		{"bad collection", map[string]string{"COLLECTIONS": "ok,not ok"}, ""},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := config.Load(tc.file); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	t.Run("bad yaml", func(t *testing.T) {
		if _, err := config.Load(writeFile(t, "port: [unclosed")); err == nil {
			t.Fatal("expected parse error")
		}
	})
}
