package budgetbuddy

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the connection pool owned by the query gateway.
//
// Thread-Safety: Implementations must be safe for concurrent use.
type Pool interface {
	// Acquire obtains a dedicated connection. It blocks until one is free or ctx ends.
	Acquire(ctx context.Context) (PooledConn, error)

	// Stat reports current pool occupancy.
	Stat() PoolStat

	// Close waits for acquired connections to be released and closes all of them.
	Close()
}

// PoolStat is a snapshot of pool occupancy.
type PoolStat struct {
	TotalConns    int32
	IdleConns     int32
	AcquiredConns int32
	MaxConns      int32
}

// CollectFunc consumes the rows of a statement. It must read rows to completion.
type CollectFunc func(rows pgx.Rows) error

// PooledConn represents a connection acquired from a Pool.
// Exactly one of Release or Discard must be called when done.
type PooledConn interface {
	// Query runs sql with positional args and hands the rows to collect.
	// The returned CommandTag is valid once collect has consumed every row.
	Query(ctx context.Context, sql string, args []any, collect CollectFunc) (pgconn.CommandTag, error)

	// Release returns the connection to the pool.
	Release()

	// Discard closes the connection and removes it from the pool.
	Discard(ctx context.Context)
}

// DBConnection abstracts database connection operations needed by DatabaseManager.
// This interface decouples the public API from pgx-specific types while providing
// the essential operations for database management.
type DBConnection interface {
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Always returns a non-nil Row. Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Row represents a single row returned by QueryRow.
type Row interface {
	// Scan reads the values from the row into dest values.
	// Returns an error if no row was found or if the scan fails.
	Scan(dest ...any) error
}
