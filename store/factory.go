package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/stevemurr/simple-doc-store/pool"
)

// Options selects and configures a backend.
type Options struct {
	// Backend is one of "sqlite" (default), "mysql", "postgres", "memory" or
	// "json".
	Backend string
	// DataDir holds the SQLite database and the JSON files.
	DataDir string
	// Pool configures the relational backends. Driver and, for SQLite,
	// Database are filled in from Backend and DataDir when empty.
	Pool pool.Config
}

// New creates a Store based on the backend name.
//
// Supported backends:
//
//	"sqlite"   - SQLite database at DataDir/docstore.db (default)
//	"mysql"    - MySQL / MariaDB server
//	"postgres" - PostgreSQL server
//	"json"     - JSON files in DataDir
//	"memory"   - In-memory (ephemeral, for testing)
func New(ctx context.Context, opts Options) (Store, error) {
	cfg := opts.Pool
	switch opts.Backend {
	case "sqlite", "":
		cfg.Driver = pool.DriverSQLite
		if cfg.Database == "" {
			cfg.Database = filepath.Join(opts.DataDir, "docstore.db")
		}
	case "mysql":
		cfg.Driver = pool.DriverMySQL
	case "postgres":
		cfg.Driver = pool.DriverPostgres
	case "json":
		return NewJSONFileStore(opts.DataDir)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: sqlite, mysql, postgres, json, memory)", opts.Backend)
	}
	p, err := pool.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(p), nil
}
