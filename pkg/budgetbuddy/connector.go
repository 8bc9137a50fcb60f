package budgetbuddy

import "context"

// PoolHooks are the event handlers wired into every pool a Connector builds.
// The same hooks are passed again whenever the gateway replaces its pool.
type PoolHooks struct {
	// OnConnect runs after each new physical connection is established.
	OnConnect func()
}

// Connector is a unified interface for building connection pools.
// Different implementations handle various authentication methods
// (standard credentials, cloud IAM, etc.).
type Connector interface {
	// Connect builds a new pool. Pools connect lazily, so a nil error does not
	// mean the database is reachable; callers smoke-test the returned pool.
	// The returned pool should be closed by the caller when done.
	Connect(ctx context.Context, hooks PoolHooks) (Pool, error)
}
