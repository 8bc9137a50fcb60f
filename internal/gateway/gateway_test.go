package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/budgetbuddy/internal/logging"
	"github.com/vvka-141/budgetbuddy/internal/retry"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

type harness struct {
	gw        *Gateway
	pool      *fakePool
	connector *fakeConnector
	sched     *fakeScheduler
	backoff   *recordingBackoff
}

// newHarness returns an initialized gateway backed by a scripted pool.
func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		pool:    &fakePool{},
		sched:   &fakeScheduler{},
		backoff: newRecordingQueryBackoff(),
	}
	h.connector = &fakeConnector{connect: alwaysPool(h.pool)}

	opts = append([]Option{
		WithQueryBackoff(h.backoff),
		withScheduler(h.sched.schedule),
	}, opts...)
	h.gw = New(h.connector, opts...)
	t.Cleanup(func() { _ = h.gw.Shutdown(context.Background()) })

	require.NoError(t, h.gw.Initialize(context.Background()))
	h.pool.released.Store(0)
	h.pool.discarded.Store(0)
	return h
}

func TestExecute_ReturnsRowSet(t *testing.T) {
	h := newHarness(t)

	rs, err := h.gw.Execute(context.Background(), "SELECT 1 AS health_check")
	require.NoError(t, err)

	assert.Equal(t, []string{"health_check"}, rs.Columns)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, int32(1), rs.Rows[0]["health_check"])
	assert.Equal(t, int64(1), rs.RowCount)
	assert.Equal(t, int32(1), h.pool.released.Load())
}

func TestExecute_RetriesTransientFailures(t *testing.T) {
	h := newHarness(t)
	h.pool.push(pgError("08006"), pgError("08003"), pgError("57P01"), selectOne())

	rs, err := h.gw.Execute(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rs.RowCount)

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}, h.backoff.recorded())
	assert.Equal(t, int32(3), h.pool.discarded.Load())
	assert.Equal(t, int32(1), h.pool.released.Load())
}

func TestExecute_ConnectionRefusedIsRetried(t *testing.T) {
	h := newHarness(t)
	h.pool.push(response{err: errRefused}, selectOne())

	_, err := h.gw.Execute(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Len(t, h.backoff.recorded(), 1)
}

func TestExecute_ExhaustedRetriesIsConnectionUnavailable(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 4; i++ {
		h.pool.push(pgError("08006"))
	}
	before := h.pool.queries()

	_, err := h.gw.Execute(context.Background(), "SELECT 1")
	require.Error(t, err)

	assert.ErrorIs(t, err, budgetbuddy.ErrConnectionUnavailable)
	assert.Equal(t, 503, budgetbuddy.StatusForError(err))
	assert.Equal(t, 4, h.pool.queries()-before)
	assert.Len(t, h.backoff.recorded(), 3)
}

func TestExecute_ClassifiedErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		code     string
		sentinel error
		kind     budgetbuddy.ErrorKind
		status   int
	}{
		{"23505", budgetbuddy.ErrDuplicateRecord, budgetbuddy.KindDuplicateRecord, 409},
		{"23503", budgetbuddy.ErrInvalidReference, budgetbuddy.KindInvalidReference, 400},
		{"23502", budgetbuddy.ErrMissingRequiredField, budgetbuddy.KindMissingRequiredField, 400},
		{"42P01", budgetbuddy.ErrSchemaMissing, budgetbuddy.KindSchemaMissing, 500},
		{"28P01", budgetbuddy.ErrAuthenticationFailed, budgetbuddy.KindAuthenticationFailed, 500},
		{"42601", budgetbuddy.ErrOperationFailed, budgetbuddy.KindOperationFailed, 500},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h := newHarness(t)
			h.pool.push(pgError(tt.code))
			before := h.pool.queries()

			_, err := h.gw.Execute(context.Background(), "INSERT INTO users (email) VALUES ($1)", "a@b.c")
			require.Error(t, err)

			assert.ErrorIs(t, err, tt.sentinel)
			kind, ok := budgetbuddy.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.status, budgetbuddy.StatusForError(err))
			assert.Equal(t, tt.sentinel.Error(), err.Error())
			assert.NotContains(t, err.Error(), "server said")

			assert.Equal(t, 1, h.pool.queries()-before)
			assert.Empty(t, h.backoff.recorded())
			assert.Equal(t, int32(1), h.pool.released.Load())
			assert.Equal(t, int32(0), h.pool.discarded.Load())
		})
	}
}

func TestExecute_UnclassifiedErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Format: logging.FormatJSON})
	require.NoError(t, err)

	h := newHarness(t, WithLogger(logger))
	h.pool.push(pgError("42601"))

	_, err = h.gw.Execute(context.Background(), "SELEC nonsense")
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"database error"`)
	assert.Contains(t, out, `"code":"42601"`)
	assert.Contains(t, out, `"statement":"SELEC nonsense"`)
}

func TestExecute_SlowQueryIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Format: logging.FormatJSON})
	require.NoError(t, err)

	h := newHarness(t, WithLogger(logger), WithSlowQueryThreshold(5*time.Millisecond))
	slow := selectOne()
	slow.delay = 20 * time.Millisecond
	h.pool.push(slow)

	statement := "SELECT " + strings.Repeat("x", 150)
	_, err = h.gw.Execute(context.Background(), statement)
	require.NoError(t, err)

	var record map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var r map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		if r["msg"] == "slow query" {
			record = r
		}
	}
	require.NotNil(t, record, "no slow query record in %s", buf.String())

	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, statement[:100]+"...", record["statement"])
	assert.EqualValues(t, 1, record["rows"])
	assert.NotNil(t, record["duration"])
}

func TestExecute_FastQueryIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Format: logging.FormatJSON})
	require.NoError(t, err)

	h := newHarness(t, WithLogger(logger))
	_, err = h.gw.Execute(context.Background(), "SELECT 1")
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "slow query")
}

func TestExecute_WithoutPool(t *testing.T) {
	backoff := newRecordingQueryBackoff()
	gw := New(&fakeConnector{connect: alwaysPool(&fakePool{})}, WithQueryBackoff(backoff), withScheduler((&fakeScheduler{}).schedule))
	defer gw.Shutdown(context.Background()) //nolint:errcheck

	_, err := gw.Execute(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, budgetbuddy.ErrConnectionUnavailable)
	assert.ErrorIs(t, err, retry.ErrPoolUnavailable)
	assert.Len(t, backoff.recorded(), 3)
}

func TestAcquire_WaitingCountsOnlyQueuedCallers(t *testing.T) {
	h := newHarness(t)
	h.pool.blockAcq = true
	h.pool.saturated = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.gw.Execute(ctx, "SELECT 1")
	}()

	require.Eventually(t, func() bool { return h.gw.waiting.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, int64(0), h.gw.waiting.Load())
}

func TestAcquire_FreePoolIsNotWaiting(t *testing.T) {
	h := newHarness(t, WithAcquireTimeout(50*time.Millisecond))
	h.pool.blockAcq = true

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.gw.Execute(context.Background(), "SELECT 1")
	}()

	assert.Never(t, func() bool { return h.gw.waiting.Load() != 0 }, 30*time.Millisecond, 5*time.Millisecond)
	<-done
}

func TestExecute_AcquireTimeout(t *testing.T) {
	h := newHarness(t, WithAcquireTimeout(20*time.Millisecond))
	h.pool.blockAcq = true

	start := time.Now()
	_, err := h.gw.Execute(context.Background(), "SELECT 1")
	require.Error(t, err)

	assert.ErrorIs(t, err, budgetbuddy.ErrConnectionUnavailable)
	assert.ErrorIs(t, err, retry.ErrAcquireTimeout)
	assert.Empty(t, h.backoff.recorded())
	assert.Less(t, time.Since(start), time.Second)
}

func TestExecute_CallerCancellation(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.pool.push(response{err: context.Canceled})

	_, err := h.gw.Execute(ctx, "SELECT 1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.backoff.recorded())
}

type userRow struct {
	ID    int32  `db:"id"`
	Email string `db:"email"`
}

func TestCollectRows(t *testing.T) {
	h := newHarness(t)
	h.pool.push(response{
		columns: []string{"id", "email"},
		rows:    [][]any{{int32(1), "a@example.com"}, {int32(2), "b@example.com"}},
		tag:     "SELECT 2",
	})

	users, err := CollectRows[userRow](context.Background(), h.gw, "SELECT id, email FROM users")
	require.NoError(t, err)
	assert.Equal(t, []userRow{{1, "a@example.com"}, {2, "b@example.com"}}, users)
}

type userProfileRow struct {
	ID    int32  `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
}

func TestCollectRows_FieldWithoutColumnStaysZero(t *testing.T) {
	h := newHarness(t)
	h.pool.push(response{
		columns: []string{"id", "email"},
		rows:    [][]any{{int32(1), "a@example.com"}},
		tag:     "SELECT 1",
	})

	users, err := CollectRows[userProfileRow](context.Background(), h.gw, "SELECT id, email FROM users")
	require.NoError(t, err)
	assert.Equal(t, []userProfileRow{{ID: 1, Email: "a@example.com"}}, users)
}

func TestCollectRows_ColumnWithoutFieldFails(t *testing.T) {
	h := newHarness(t)
	h.pool.push(response{
		columns: []string{"id", "email", "extra"},
		rows:    [][]any{{int32(1), "a@example.com", "x"}},
		tag:     "SELECT 1",
	})

	_, err := CollectRows[userRow](context.Background(), h.gw, "SELECT id, email, extra FROM users")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, budgetbuddy.StatusForError(err))
}

func TestCollectOne_NotFound(t *testing.T) {
	h := newHarness(t)
	h.pool.push(response{columns: []string{"id", "email"}, tag: "SELECT 0"})

	_, err := CollectOne[userRow](context.Background(), h.gw, "SELECT id, email FROM users WHERE id = $1", 9)
	assert.ErrorIs(t, err, budgetbuddy.ErrNotFound)
}

func TestCollectRows_RetryDoesNotDuplicate(t *testing.T) {
	h := newHarness(t)
	h.pool.push(pgError("08006"), response{
		columns: []string{"id", "email"},
		rows:    [][]any{{int32(1), "a@example.com"}},
		tag:     "SELECT 1",
	})

	users, err := CollectRows[userRow](context.Background(), h.gw, "SELECT id, email FROM users")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestExec_ReportsAffectedRows(t *testing.T) {
	h := newHarness(t)
	h.pool.push(response{tag: "DELETE 3"})

	n, err := Exec(context.Background(), h.gw, "DELETE FROM bills WHERE user_id = $1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestStatementPreview(t *testing.T) {
	assert.Equal(t, "SELECT 1", statementPreview("SELECT 1"))

	exact := strings.Repeat("a", 100)
	assert.Equal(t, exact, statementPreview(exact))

	long := strings.Repeat("b", 101)
	assert.Equal(t, strings.Repeat("b", 100)+"...", statementPreview(long))
}
