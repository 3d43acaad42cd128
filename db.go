package riverpress

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Querier is satisfied by *sql.DB, *sql.Conn, *sql.Tx and the request-scoped
// lazy connection.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// queryAll runs query and scans every row with scan, preserving order.
func queryAll[T any](ctx context.Context, q Querier, scan func(rowScanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// queryOne returns the first row of query, or ErrNotFound when there is none.
func queryOne[T any](ctx context.Context, q Querier, scan func(rowScanner) (T, error), query string, args ...any) (T, error) {
	var zero T
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, err
		}
		return zero, ErrNotFound
	}
	return scan(rows)
}

// execute runs a statement and returns the last inserted row id.
func execute(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// openDB opens (or creates) the SQLite file at path, creating its directory.
func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// Connection pragmas go in the DSN so every pooled connection gets them.
	// busy_timeout makes concurrent writers wait for the lock instead of
	// failing with SQLITE_BUSY.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	return db, nil
}

// lazyConn defers taking a connection from the pool until the first query,
// and hands it back on Close. One lazyConn serves exactly one request.
type lazyConn struct {
	db   *sql.DB
	conn *sql.Conn
}

func newLazyConn(db *sql.DB) *lazyConn {
	return &lazyConn{db: db}
}

func (l *lazyConn) acquire(ctx context.Context) (*sql.Conn, error) {
	if l.conn != nil {
		return l.conn, nil
	}
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	l.conn = conn
	return conn, nil
}

func (l *lazyConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	conn, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn.ExecContext(ctx, query, args...)
}

func (l *lazyConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	conn, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn.QueryContext(ctx, query, args...)
}

// Acquired reports whether a connection was taken from the pool.
func (l *lazyConn) Acquired() bool {
	return l.conn != nil
}

// Close releases the connection, if one was acquired.
func (l *lazyConn) Close() error {
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	return err
}
