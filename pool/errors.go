package pool

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrConnectivity matches every *ConnectivityError.
var ErrConnectivity = errors.New("backend unreachable")

// ConnectivityError reports that the backend could not be reached or refused
// the credentials. The pool never retries; the caller decides.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return "pool: " + e.Op + ": " + ErrConnectivity.Error() + ": " + e.Err.Error()
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

func (e *ConnectivityError) Is(target error) bool { return target == ErrConnectivity }

// Classify wraps err in a *ConnectivityError when it is a network or
// authentication failure. Any other error, including the caller's own
// context cancellation or deadline, is returned unchanged.
func Classify(op string, err error) error {
	if err == nil || !isConnectivity(err) {
		return err
	}
	var ce *ConnectivityError
	if errors.As(err, &ce) {
		return err
	}
	return &ConnectivityError{Op: op, Err: err}
}

func isConnectivity(err error) bool {
	// context.DeadlineExceeded implements net.Error.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// ER_DBACCESS_DENIED_ERROR, ER_ACCESS_DENIED_ERROR
		return myErr.Number == 1044 || myErr.Number == 1045
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exception. Class 28: invalid authorization.
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "28")
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrCantOpen || liteErr.Code == sqlite3.ErrAuth
	}
	return false
}
