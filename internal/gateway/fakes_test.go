package gateway

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/budgetbuddy/internal/retry"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// response is one scripted statement outcome.
type response struct {
	columns []string
	rows    [][]any
	tag     string
	err     error
	delay   time.Duration
}

func selectOne() response {
	return response{columns: []string{"health_check"}, rows: [][]any{{int32(1)}}, tag: "SELECT 1"}
}

func pgError(code string) response {
	return response{err: &pgconn.PgError{Code: code, Message: "server said " + code}}
}

type fakePool struct {
	mu         sync.Mutex
	script     []response
	statements []string
	acquireErr error
	blockAcq   bool
	// saturated reports every connection as acquired.
	saturated bool

	acquired  atomic.Int32
	released  atomic.Int32
	discarded atomic.Int32
	closed    atomic.Bool
}

func (p *fakePool) push(rs ...response) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = append(p.script, rs...)
}

func (p *fakePool) next(statement string) response {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statements = append(p.statements, statement)
	if len(p.script) == 0 {
		return selectOne()
	}
	r := p.script[0]
	p.script = p.script[1:]
	return r
}

func (p *fakePool) queries() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.statements)
}

func (p *fakePool) Acquire(ctx context.Context) (budgetbuddy.PooledConn, error) {
	if p.blockAcq {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired.Add(1)
	return &fakeConn{pool: p}, nil
}

func (p *fakePool) Stat() budgetbuddy.PoolStat {
	if p.saturated {
		return budgetbuddy.PoolStat{TotalConns: 20, IdleConns: 0, AcquiredConns: 20, MaxConns: 20}
	}
	return budgetbuddy.PoolStat{TotalConns: 4, IdleConns: 3, AcquiredConns: 1, MaxConns: 20}
}

func (p *fakePool) Close() { p.closed.Store(true) }

type fakeConn struct {
	pool *fakePool
}

func (c *fakeConn) Query(ctx context.Context, sql string, _ []any, collect budgetbuddy.CollectFunc) (pgconn.CommandTag, error) {
	r := c.pool.next(sql)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	rows := &fakeRows{columns: r.columns, values: r.rows, idx: -1}
	if err := collect(rows); err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag(r.tag), nil
}

func (c *fakeConn) Release()                { c.pool.released.Add(1) }
func (c *fakeConn) Discard(context.Context) { c.pool.discarded.Add(1) }

// fakeRows is the subset of pgx.Rows used by the gateway collectors.
type fakeRows struct {
	columns []string
	values  [][]any
	idx     int
}

func (r *fakeRows) Close()                        {}
func (r *fakeRows) Err() error                    { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }
func (r *fakeRows) RawValues() [][]byte           { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.columns))
	for i, c := range r.columns {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return fds
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.values)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.values[r.idx], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.values[r.idx]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		value := reflect.ValueOf(row[i])
		if !value.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan: cannot assign %s to %s", value.Type(), target.Type())
		}
		target.Set(value)
	}
	return nil
}

// fakeConnector hands out pools from connect, one call at a time.
type fakeConnector struct {
	mu      sync.Mutex
	calls   int
	hooks   budgetbuddy.PoolHooks
	connect func(call int) (budgetbuddy.Pool, error)
	closed  bool
}

func (c *fakeConnector) Connect(_ context.Context, hooks budgetbuddy.PoolHooks) (budgetbuddy.Pool, error) {
	c.mu.Lock()
	c.calls++
	call := c.calls
	c.hooks = hooks
	connect := c.connect
	c.mu.Unlock()
	return connect(call)
}

func (c *fakeConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConnector) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *fakeConnector) onConnect() {
	c.mu.Lock()
	hooks := c.hooks
	c.mu.Unlock()
	hooks.OnConnect()
}

func alwaysPool(pool budgetbuddy.Pool) func(int) (budgetbuddy.Pool, error) {
	return func(int) (budgetbuddy.Pool, error) { return pool, nil }
}

var errRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

// fakeScheduler records reconnect delays and fires timers on demand.
type fakeScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []*fakeTimer
}

type fakeTimer struct {
	f       func()
	stopped bool
}

func (s *fakeScheduler) schedule(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{f: f}
	s.delays = append(s.delays, d)
	s.pending = append(s.pending, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		was := !t.stopped
		t.stopped = true
		return was
	}
}

func (s *fakeScheduler) scheduled() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func (s *fakeScheduler) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

// fire runs the most recent live timer.
func (s *fakeScheduler) fire() bool {
	s.mu.Lock()
	var t *fakeTimer
	for i := len(s.pending) - 1; i >= 0; i-- {
		if !s.pending[i].stopped {
			t = s.pending[i]
			break
		}
	}
	if t != nil {
		t.stopped = true
	}
	s.mu.Unlock()

	if t == nil {
		return false
	}
	t.f()
	return true
}

// recordingBackoff records the delays the wrapped strategy asks for and waits for none of them.
type recordingBackoff struct {
	inner  budgetbuddy.BackoffStrategy
	mu     sync.Mutex
	delays []time.Duration
}

func newRecordingQueryBackoff() *recordingBackoff {
	return &recordingBackoff{inner: retry.NewQueryBackoff()}
}

func (b *recordingBackoff) NextDelay(attempt int) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays = append(b.delays, b.inner.NextDelay(attempt))
	return 0
}

func (b *recordingBackoff) MaxAttempts() int { return b.inner.MaxAttempts() }

func (b *recordingBackoff) recorded() []time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]time.Duration(nil), b.delays...)
}
