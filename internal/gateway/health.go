package gateway

import (
	"context"
	"time"

	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// CheckHealth runs the health statement through Execute and reports pool
// occupancy. It never returns an error; failures are described in the report.
func (g *Gateway) CheckHealth(ctx context.Context) budgetbuddy.HealthReport {
	start := time.Now()
	_, err := g.Execute(ctx, budgetbuddy.HealthCheckStatement)
	elapsed := time.Since(start)

	state, attempts := g.State()
	report := budgetbuddy.HealthReport{
		Status:            budgetbuddy.HealthOK,
		Healthy:           state == StateHealthy,
		State:             state.String(),
		PoolWaiting:       g.waiting.Load(),
		ResponseTimeMs:    elapsed.Milliseconds(),
		ReconnectAttempts: attempts,
	}

	if ref := g.pool.Load(); ref != nil {
		stat := ref.pool.Stat()
		report.PoolTotal = stat.TotalConns
		report.PoolIdle = stat.IdleConns
	}

	if err != nil {
		g.logger.Error("database health check failed", "error", err)
		report.Status = budgetbuddy.HealthError
		report.Healthy = false
		report.Error = err.Error()
	}

	return report
}
