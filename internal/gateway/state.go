package gateway

import (
	"context"
	"time"

	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// State is the health state of a Gateway.
type State int

const (
	StateHealthy State = iota
	StateUnhealthy
	StateReconnectScheduled
	StatePermanentlyFailed
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateUnhealthy:
		return "unhealthy"
	case StateReconnectScheduled:
		return "reconnect_scheduled"
	case StatePermanentlyFailed:
		return "permanently_failed"
	default:
		return "unknown"
	}
}

type snapshot struct {
	state    State
	attempts int
}

// Events consumed by the loop.
type (
	connectionLost struct{ err error }
	reconnectCheck struct{}
	reconnectDue   struct{ generation uint64 }
	connected      struct{}

	// attemptResult reports a background pool rebuild. pool is nil when Connect failed.
	attemptResult struct {
		pool budgetbuddy.Pool
		err  error
	}

	// poolReady installs the pool built by Initialize. err is the smoke test outcome.
	poolReady struct {
		pool budgetbuddy.Pool
		err  error
		ack  chan struct{}
	}
)

// post hands ev to the loop. It returns false once the loop has stopped.
func (g *Gateway) post(ev any) bool {
	select {
	case g.events <- ev:
		return true
	case <-g.done:
		return false
	}
}

func (g *Gateway) loop() {
	defer close(g.done)
	defer g.cancelTimer()

	for {
		select {
		case <-g.stop:
			return
		case ev := <-g.events:
			g.handle(ev)
		}
	}
}

func (g *Gateway) handle(ev any) {
	switch ev := ev.(type) {
	case connectionLost:
		g.onConnectionLost(ev.err)
	case reconnectCheck:
		if g.state == StateUnhealthy {
			g.scheduleReconnect()
		}
	case reconnectDue:
		g.onReconnectDue(ev.generation)
	case attemptResult:
		g.onAttemptResult(ev)
	case connected:
		g.onConnected()
	case poolReady:
		g.onPoolReady(ev)
		defer close(ev.ack)
	}
	g.publish()
}

func (g *Gateway) onConnectionLost(err error) {
	if g.state == StateHealthy {
		g.logger.Error("database connection lost, pool marked unhealthy", "error", err)
		g.state = StateUnhealthy
	}
	if g.state == StateUnhealthy {
		g.scheduleReconnect()
	}
}

// scheduleReconnect arms the single reconnect timer, or gives up once the
// attempt budget is spent.
func (g *Gateway) scheduleReconnect() {
	if g.rebuilding {
		return
	}

	maxAttempts := g.reconnect.MaxAttempts()
	if g.attempts >= maxAttempts {
		g.cancelTimer()
		g.state = StatePermanentlyFailed
		g.logger.Error("giving up on database reconnection", "attempts", g.attempts)
		return
	}

	g.attempts++
	delay := g.reconnect.NextDelay(g.attempts - 1)

	g.cancelTimer()
	g.generation++
	generation := g.generation
	g.stopTimer = g.schedule(delay, func() {
		g.post(reconnectDue{generation: generation})
	})
	g.state = StateReconnectScheduled

	g.logger.Warn("database reconnection scheduled",
		"attempt", g.attempts,
		"max_attempts", maxAttempts,
		"delay", delay)
}

func (g *Gateway) cancelTimer() {
	if g.stopTimer != nil {
		g.stopTimer()
		g.stopTimer = nil
	}
}

func (g *Gateway) onReconnectDue(generation uint64) {
	if generation != g.generation || g.state != StateReconnectScheduled || g.rebuilding {
		return
	}
	g.stopTimer = nil
	g.rebuilding = true

	if old := g.swapPool(nil); old != nil {
		go g.drainPool(old)
	}

	attempt := g.attempts
	go func() {
		pool, err := g.buildPool(attempt)
		if !g.post(attemptResult{pool: pool, err: err}) && pool != nil {
			pool.Close()
		}
	}()
}

func (g *Gateway) buildPool(attempt int) (budgetbuddy.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*g.acquireTimeout)
	defer cancel()

	g.logger.Info("reconnecting to database", "attempt", attempt)

	pool, err := g.connector.Connect(ctx, g.hooks())
	if err != nil {
		return nil, err
	}
	return pool, g.smokeTest(ctx, pool)
}

func (g *Gateway) onAttemptResult(res attemptResult) {
	g.rebuilding = false

	if res.pool != nil {
		if old := g.swapPool(res.pool); old != nil {
			go g.drainPool(old)
		}
	}

	if res.err == nil {
		g.logger.Info("successfully reconnected to database", "attempts", g.attempts)
		g.markHealthy()
		return
	}

	g.logger.Error("failed to verify database reconnection", "attempt", g.attempts, "error", res.err)
	g.state = StateUnhealthy
	g.scheduleReconnect()
}

func (g *Gateway) onConnected() {
	if g.state != StateHealthy {
		g.logger.Info("database connection re-established", "previous_state", g.state.String())
	} else {
		g.logger.Debug("database connection established")
	}
	g.markHealthy()
}

func (g *Gateway) onPoolReady(ev poolReady) {
	if old := g.swapPool(ev.pool); old != nil {
		go g.drainPool(old)
	}

	if ev.err == nil {
		g.markHealthy()
		return
	}

	if g.state == StatePermanentlyFailed {
		g.attempts = 0
	}
	if g.state != StateReconnectScheduled {
		g.state = StateUnhealthy
		g.scheduleReconnect()
	}
}

func (g *Gateway) markHealthy() {
	g.cancelTimer()
	g.generation++
	g.state = StateHealthy
	g.attempts = 0
}

func (g *Gateway) publish() {
	g.snap.Store(&snapshot{state: g.state, attempts: g.attempts})
}

func (g *Gateway) drainPool(pool budgetbuddy.Pool) {
	start := time.Now()
	pool.Close()
	g.logger.Debug("previous connection pool closed", "duration", time.Since(start))
}
