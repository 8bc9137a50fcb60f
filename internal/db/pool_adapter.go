package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// PoolAdapter adapts *pgxpool.Pool to the budgetbuddy.Pool and
// budgetbuddy.DBConnection interfaces, keeping pgxpool out of the public API.
//
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe).
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter creates a new PoolAdapter wrapping the given pool.
func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

// Acquire obtains a dedicated connection from the pool.
func (p *PoolAdapter) Acquire(ctx context.Context) (budgetbuddy.PooledConn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pooledConnAdapter{conn: conn}, nil
}

// Stat reports pool occupancy.
func (p *PoolAdapter) Stat() budgetbuddy.PoolStat {
	s := p.pool.Stat()
	return budgetbuddy.PoolStat{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
	}
}

// Close closes all connections once they are released.
func (p *PoolAdapter) Close() {
	p.pool.Close()
}

// Exec executes a statement without returning rows.
func (p *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) budgetbuddy.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// pooledConnAdapter adapts *pgxpool.Conn to budgetbuddy.PooledConn.
type pooledConnAdapter struct {
	conn *pgxpool.Conn
}

// Query runs sql and hands the rows to collect. Rows are always closed before returning.
func (p *pooledConnAdapter) Query(ctx context.Context, sql string, args []any, collect budgetbuddy.CollectFunc) (pgconn.CommandTag, error) {
	rows, err := p.conn.Query(ctx, sql, args...)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer rows.Close()

	if err := collect(rows); err != nil {
		return pgconn.CommandTag{}, err
	}

	rows.Close()
	if err := rows.Err(); err != nil {
		return pgconn.CommandTag{}, err
	}
	return rows.CommandTag(), nil
}

// Release returns the connection to the pool. pgxpool resets or destroys
// connections left in a broken or in-transaction state.
func (p *pooledConnAdapter) Release() {
	p.conn.Release()
}

// Discard removes the connection from the pool and closes it.
func (p *pooledConnAdapter) Discard(ctx context.Context) {
	conn := p.conn.Hijack()
	_ = conn.Close(ctx)
}

var (
	_ budgetbuddy.Pool         = (*PoolAdapter)(nil)
	_ budgetbuddy.DBConnection = (*PoolAdapter)(nil)
)
