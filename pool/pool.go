// Package pool manages the shared, bounded set of connections to the
// relational backend that every collection is stored in.
package pool

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver ("pgx")
	_ "github.com/mattn/go-sqlite3"   // SQLite driver ("sqlite3")
)

// Supported driver names, as registered with database/sql.
const (
	DriverSQLite   = "sqlite3"
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
)

// DefaultMaxConns matches the connection limit the store has always run with.
const DefaultMaxConns = 10

// Config describes how to reach the backend.
type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	// Database is the schema name for MySQL and PostgreSQL and the file path
	// for SQLite.
	Database string

	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Pool is a bounded connection pool. Callers beyond MaxConns wait for a free
// connection instead of failing. Safe for concurrent use.
type Pool struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the backend described by cfg and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Pool, error) {
	d, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	db.SetMaxOpenConns(maxConns)
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(maxConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &ConnectivityError{Op: "ping", Err: err}
	}
	if cfg.Driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, err
		}
	}
	slog.Debug("pool opened", "driver", cfg.Driver, "host", cfg.Host, "database", cfg.Database, "max_conns", maxConns)
	return &Pool{db: db, dialect: d}, nil
}

func dataSourceName(cfg Config) (string, error) {
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.Database == "" {
			return "", fmt.Errorf("sqlite: database path is required")
		}
		if cfg.Database != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
				return "", err
			}
		}
		return "file:" + cfg.Database + "?_busy_timeout=5000", nil
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = hostPort(cfg.Host, cfg.Port, 3306)
		mc.DBName = cfg.Database
		return mc.FormatDSN(), nil
	case DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			Host:   hostPort(cfg.Host, cfg.Port, 5432),
			Path:   "/" + cfg.Database,
		}
		if cfg.User != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		return u.String(), nil
	}
	return "", fmt.Errorf("unknown driver: %q", cfg.Driver)
}

func hostPort(host string, port, fallback int) string {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = fallback
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Dialect returns the SQL dialect of the backend.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Exec runs a statement that returns no rows. Statements use "?" placeholders.
func (p *Pool) Exec(ctx context.Context, stmt string, args ...any) (sql.Result, error) {
	res, err := p.db.ExecContext(ctx, p.dialect.Rebind(stmt), args...)
	if err != nil {
		return nil, Classify("exec", err)
	}
	return res, nil
}

// Query runs a statement that returns rows. The caller must close them.
func (p *Pool) Query(ctx context.Context, stmt string, args ...any) (*sql.Rows, error) {
	rows, err := p.db.QueryContext(ctx, p.dialect.Rebind(stmt), args...)
	if err != nil {
		return nil, Classify("query", err)
	}
	return rows, nil
}

// QueryRow runs a statement expected to return at most one row. Errors are
// deferred to Row.Scan; pass them through Classify.
func (p *Pool) QueryRow(ctx context.Context, stmt string, args ...any) *sql.Row {
	return p.db.QueryRowContext(ctx, p.dialect.Rebind(stmt), args...)
}

// Stats returns the connection pool statistics.
func (p *Pool) Stats() sql.DBStats {
	return p.db.Stats()
}

// Close closes all connections.
func (p *Pool) Close() error {
	return p.db.Close()
}
