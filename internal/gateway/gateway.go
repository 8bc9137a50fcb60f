package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lmittmann/tint"
	"github.com/vvka-141/budgetbuddy/internal/logging"
	"github.com/vvka-141/budgetbuddy/internal/retry"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// ErrClosed is returned by statements issued after Shutdown.
var ErrClosed = errors.New("gateway is shut down")

const (
	tintColorDuration = 214
	tintColorRows     = 12
	tintColorQuery    = 2
)

// scheduler runs f after d and returns a function that cancels it.
type scheduler func(d time.Duration, f func()) (stop func() bool)

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type poolRef struct {
	pool budgetbuddy.Pool
}

// Gateway executes statements against a self-healing connection pool.
//
// Thread-Safety: Execute, Query and CheckHealth may be called concurrently.
type Gateway struct {
	connector      budgetbuddy.Connector
	logger         *slog.Logger
	classifier     *retry.QueryClassifier
	executor       *retry.Executor
	reconnect      budgetbuddy.BackoffStrategy
	schedule       scheduler
	acquireTimeout time.Duration
	slowThreshold  time.Duration

	pool    atomic.Pointer[poolRef]
	snap    atomic.Pointer[snapshot]
	waiting atomic.Int64
	closed  atomic.Bool

	events   chan any
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// Owned by the loop goroutine.
	state      State
	attempts   int
	generation uint64
	stopTimer  func() bool
	rebuilding bool
}

// Option configures a Gateway.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	queryBackoff   budgetbuddy.BackoffStrategy
	reconnect      budgetbuddy.BackoffStrategy
	schedule       scheduler
	acquireTimeout time.Duration
	slowThreshold  time.Duration
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithQueryBackoff overrides the statement retry schedule (100ms, 200ms, 400ms).
func WithQueryBackoff(strategy budgetbuddy.BackoffStrategy) Option {
	return func(o *options) { o.queryBackoff = strategy }
}

// WithReconnectBackoff overrides the pool rebuild schedule (1s doubling, 10 attempts).
func WithReconnectBackoff(strategy budgetbuddy.BackoffStrategy) Option {
	return func(o *options) { o.reconnect = strategy }
}

// WithAcquireTimeout bounds how long a statement waits for a pooled connection.
func WithAcquireTimeout(d time.Duration) Option {
	return func(o *options) { o.acquireTimeout = d }
}

// WithSlowQueryThreshold sets the duration above which a statement is logged as slow.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(o *options) { o.slowThreshold = d }
}

func withScheduler(s scheduler) Option {
	return func(o *options) { o.schedule = s }
}

// New creates a gateway and starts its event loop. No connection is made
// until Initialize is called.
func New(connector budgetbuddy.Connector, opts ...Option) *Gateway {
	if connector == nil {
		panic("connector cannot be nil")
	}

	o := options{
		logger:         logging.Discard(),
		queryBackoff:   retry.NewQueryBackoff(),
		reconnect:      retry.NewReconnectBackoff(),
		schedule:       afterFunc,
		acquireTimeout: budgetbuddy.DefaultAcquireTimeout,
		slowThreshold:  budgetbuddy.DefaultSlowQueryThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}

	g := &Gateway{
		connector:      connector,
		logger:         o.logger,
		classifier:     retry.NewQueryClassifier(),
		reconnect:      o.reconnect,
		schedule:       o.schedule,
		acquireTimeout: o.acquireTimeout,
		slowThreshold:  o.slowThreshold,
		events:         make(chan any),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
		state:          StateHealthy,
	}

	maxRetries := o.queryBackoff.MaxAttempts()
	g.executor = retry.NewExecutor(g.classifier, o.queryBackoff).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			g.logger.Warn("database connection issue, retrying",
				"attempt", attempt,
				"max_attempts", maxRetries,
				"delay", delay,
				"error", err)
		})

	g.publish()
	go g.loop()
	return g
}

// Initialize builds the pool and verifies it with a smoke test. On failure
// the reconnect state machine is started and an error is returned, so the
// caller may keep serving in degraded mode.
func (g *Gateway) Initialize(ctx context.Context) error {
	if g.closed.Load() {
		return ErrClosed
	}

	pool, err := g.connector.Connect(ctx, g.hooks())
	if err != nil {
		if errors.Is(err, budgetbuddy.ErrInvalidConfig) {
			return err
		}
		g.post(connectionLost{err: err})
		return fmt.Errorf("%w: %w", budgetbuddy.ErrConnectionFailed, err)
	}

	smokeErr := g.smokeTest(ctx, pool)

	ack := make(chan struct{})
	if !g.post(poolReady{pool: pool, err: smokeErr, ack: ack}) {
		pool.Close()
		return ErrClosed
	}
	<-ack

	if smokeErr != nil {
		return fmt.Errorf("%w: %w", budgetbuddy.ErrConnectionFailed, smokeErr)
	}

	g.logger.Info("database connection verified")
	return nil
}

// Shutdown cancels any pending reconnect, stops the event loop and closes the pool.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.closed.Store(true)
	g.stopOnce.Do(func() { close(g.stop) })

	select {
	case <-g.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if old := g.swapPool(nil); old != nil {
		closed := make(chan struct{})
		go func() {
			old.Close()
			close(closed)
		}()
		select {
		case <-closed:
		case <-ctx.Done():
			return fmt.Errorf("closing connection pool: %w", ctx.Err())
		}
	}

	if closer, ok := g.connector.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("closing connector: %w", err)
		}
	}
	return nil
}

// State returns the current health state and the consecutive reconnect attempt count.
func (g *Gateway) State() (State, int) {
	s := g.snap.Load()
	return s.state, s.attempts
}

// Healthy reports whether the gateway believes the database is reachable.
func (g *Gateway) Healthy() bool {
	state, _ := g.State()
	return state == StateHealthy
}

// Execute runs statement with positional params and buffers the result.
func (g *Gateway) Execute(ctx context.Context, statement string, params ...any) (*budgetbuddy.RowSet, error) {
	var result *budgetbuddy.RowSet

	tag, err := g.run(ctx, statement, params, func(rows pgx.Rows) error {
		rs := &budgetbuddy.RowSet{Rows: []map[string]any{}}
		for _, fd := range rows.FieldDescriptions() {
			rs.Columns = append(rs.Columns, fd.Name)
		}

		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return err
			}
			row := make(map[string]any, len(values))
			for i, v := range values {
				row[rs.Columns[i]] = v
			}
			rs.Rows = append(rs.Rows, row)
		}

		result = rs
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	if result == nil {
		result = &budgetbuddy.RowSet{Rows: []map[string]any{}}
	}
	result.RowCount = tag.RowsAffected()
	return result, nil
}

// Query runs statement and hands the rows to collect. collect may run more
// than once when the statement is retried, so it must overwrite its output
// rather than append to it.
func (g *Gateway) Query(ctx context.Context, collect budgetbuddy.CollectFunc, statement string, params ...any) error {
	_, err := g.run(ctx, statement, params, collect)
	return err
}

func (g *Gateway) run(ctx context.Context, statement string, params []any, collect budgetbuddy.CollectFunc) (pgconn.CommandTag, error) {
	if g.closed.Load() {
		return pgconn.CommandTag{}, budgetbuddy.NewDBError(budgetbuddy.KindConnectionUnavailable, "", ErrClosed)
	}

	var tag pgconn.CommandTag
	err := g.executor.Execute(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 0 && !g.Healthy() {
			g.post(reconnectCheck{})
		}

		var err error
		tag, err = g.attempt(ctx, statement, params, collect)
		return err
	})
	if err != nil {
		return pgconn.CommandTag{}, g.translate(ctx, err, statement)
	}
	return tag, nil
}

func (g *Gateway) attempt(ctx context.Context, statement string, params []any, collect budgetbuddy.CollectFunc) (pgconn.CommandTag, error) {
	ref := g.pool.Load()
	if ref == nil {
		return pgconn.CommandTag{}, retry.ErrPoolUnavailable
	}

	conn, err := g.acquire(ctx, ref.pool)
	if err != nil {
		if retry.IsConnectionLost(err) {
			g.post(connectionLost{err: err})
		}
		return pgconn.CommandTag{}, err
	}

	start := time.Now()
	tag, err := conn.Query(ctx, statement, params, collect)
	elapsed := time.Since(start)

	if err != nil {
		if retry.IsConnectionLost(err) {
			conn.Discard(context.WithoutCancel(ctx))
			g.post(connectionLost{err: err})
		} else {
			conn.Release()
		}
		return pgconn.CommandTag{}, err
	}
	conn.Release()

	if elapsed > g.slowThreshold {
		g.logger.WarnContext(ctx, "slow query",
			tint.Attr(tintColorQuery, slog.String("statement", statementPreview(statement))),
			tint.Attr(tintColorDuration, slog.Duration("duration", elapsed)),
			tint.Attr(tintColorRows, slog.Int64("rows", tag.RowsAffected())))
	}

	return tag, nil
}

func (g *Gateway) acquire(ctx context.Context, pool budgetbuddy.Pool) (budgetbuddy.PooledConn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, g.acquireTimeout)
	defer cancel()

	// Only callers arriving at a saturated pool queue for a connection.
	if stat := pool.Stat(); stat.MaxConns > 0 && stat.AcquiredConns >= stat.MaxConns {
		g.waiting.Add(1)
		defer g.waiting.Add(-1)
	}
	conn, err := pool.Acquire(acquireCtx)

	if err != nil && ctx.Err() == nil && errors.Is(acquireCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %v: %w", retry.ErrAcquireTimeout, g.acquireTimeout, err)
	}
	return conn, err
}

// translate converts a failed statement into a *budgetbuddy.DBError.
func (g *Gateway) translate(ctx context.Context, err error, statement string) error {
	kind, code := g.classifier.Classify(err)

	if kind == budgetbuddy.KindOperationFailed && ctx.Err() == nil {
		var pgErr *pgconn.PgError
		message := err.Error()
		if errors.As(err, &pgErr) {
			message = pgErr.Message
		}
		g.logger.Error("database error",
			"code", code,
			"message", message,
			"statement", statementPreview(statement))
	}

	return budgetbuddy.NewDBError(kind, code, err)
}

func (g *Gateway) smokeTest(ctx context.Context, pool budgetbuddy.Pool) error {
	conn, err := g.acquire(ctx, pool)
	if err != nil {
		return err
	}

	_, err = conn.Query(ctx, budgetbuddy.HealthCheckStatement, nil, drainRows)
	if err != nil {
		conn.Discard(context.WithoutCancel(ctx))
		return err
	}
	conn.Release()
	return nil
}

func (g *Gateway) hooks() budgetbuddy.PoolHooks {
	return budgetbuddy.PoolHooks{
		OnConnect: func() { g.post(connected{}) },
	}
}

func (g *Gateway) swapPool(pool budgetbuddy.Pool) budgetbuddy.Pool {
	var next *poolRef
	if pool != nil {
		next = &poolRef{pool: pool}
	}
	if prev := g.pool.Swap(next); prev != nil {
		return prev.pool
	}
	return nil
}

func drainRows(rows pgx.Rows) error {
	for rows.Next() {
	}
	return rows.Err()
}

// statementPreview truncates statement for logs.
func statementPreview(statement string) string {
	if len(statement) <= budgetbuddy.MaxStatementPreviewLength {
		return statement
	}
	return statement[:budgetbuddy.MaxStatementPreviewLength] + "..."
}
