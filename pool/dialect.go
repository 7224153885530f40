package pool

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect knows the statement variations between the supported backends.
type Dialect interface {
	// Name is the driver name.
	Name() string
	// Quote quotes an identifier.
	Quote(ident string) string
	// Rebind rewrites "?" placeholders into the backend's syntax.
	Rebind(stmt string) string
	// CreateTable returns the DDL for a two-column document table.
	CreateTable(table string) string
	// Upsert returns the insert-or-overwrite statement for a document table.
	// Arguments are (id, document).
	Upsert(table string) string
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDialect{}, nil
	case DriverMySQL:
		return mysqlDialect{}, nil
	case DriverPostgres:
		return postgresDialect{}, nil
	}
	return nil, fmt.Errorf("unknown driver: %q (supported: %s, %s, %s)", driver, DriverSQLite, DriverMySQL, DriverPostgres)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string              { return DriverSQLite }
func (sqliteDialect) Quote(ident string) string { return quoteWith(ident, '"') }
func (sqliteDialect) Rebind(stmt string) string { return stmt }

func (d sqliteDialect) CreateTable(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + d.Quote(table) + ` (
		id TEXT NOT NULL PRIMARY KEY,
		document TEXT NOT NULL
	)`
}

func (d sqliteDialect) Upsert(table string) string {
	return `INSERT INTO ` + d.Quote(table) + ` (id, document) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document`
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string              { return DriverMySQL }
func (mysqlDialect) Quote(ident string) string { return quoteWith(ident, '`') }
func (mysqlDialect) Rebind(stmt string) string { return stmt }

func (d mysqlDialect) CreateTable(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + d.Quote(table) + ` (
		id VARCHAR(255) NOT NULL PRIMARY KEY,
		document LONGTEXT NOT NULL
	)`
}

func (d mysqlDialect) Upsert(table string) string {
	return `INSERT INTO ` + d.Quote(table) + ` (id, document) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE document = VALUES(document)`
}

type postgresDialect struct{}

func (postgresDialect) Name() string              { return DriverPostgres }
func (postgresDialect) Quote(ident string) string { return quoteWith(ident, '"') }

// Rebind numbers placeholders as $1, $2, ... Statements built by this package
// never contain a literal "?" inside a string.
func (postgresDialect) Rebind(stmt string) string {
	if !strings.Contains(stmt, "?") {
		return stmt
	}
	var b strings.Builder
	b.Grow(len(stmt) + 8)
	n := 0
	for i := 0; i < len(stmt); i++ {
		if stmt[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(stmt[i])
	}
	return b.String()
}

func (d postgresDialect) CreateTable(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + d.Quote(table) + ` (
		id TEXT NOT NULL PRIMARY KEY,
		document TEXT NOT NULL
	)`
}

func (d postgresDialect) Upsert(table string) string {
	return `INSERT INTO ` + d.Quote(table) + ` (id, document) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document`
}

func quoteWith(ident string, q byte) string {
	s := string(q)
	return s + strings.ReplaceAll(ident, s, s+s) + s
}
