package budgetbuddy

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Command completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitSchemaError     = 12 // Schema missing or could not be applied
	ExitDatabaseError   = 13 // SQL execution failed
)

// Query gateway defaults.
const (
	// DefaultPoolMaxConns is the maximum number of connections held by the pool.
	DefaultPoolMaxConns = 20

	// DefaultIdleTimeout is how long an unused connection stays in the pool.
	DefaultIdleTimeout = 30 * time.Second

	// DefaultAcquireTimeout bounds the wait for a free pooled connection.
	DefaultAcquireTimeout = 5 * time.Second

	// DefaultRetryInitialDelay is the delay before the first query retry.
	// Subsequent retries double it: 100ms, 200ms, 400ms.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxAttempts is the number of retries for a transient query failure.
	DefaultRetryMaxAttempts = 3

	// DefaultReconnectInitialDelay is the delay before the first pool reconnect attempt.
	DefaultReconnectInitialDelay = 1 * time.Second

	// DefaultReconnectMaxDelay caps the delay between pool reconnect attempts.
	DefaultReconnectMaxDelay = 10 * time.Minute

	// DefaultReconnectMaxAttempts is the number of consecutive failed reconnects
	// after which the gateway stops trying on its own.
	DefaultReconnectMaxAttempts = 10

	// DefaultSlowQueryThreshold is the duration above which a query is logged as slow.
	DefaultSlowQueryThreshold = 100 * time.Millisecond

	// MaxStatementPreviewLength is the number of statement characters included
	// in log lines before the preview is truncated.
	MaxStatementPreviewLength = 100

	// HealthCheckStatement is the trivial statement used for probes and smoke tests.
	HealthCheckStatement = "SELECT 1 AS health_check"

	// DefaultManagementDB is the database used for server-level operations (CREATE DATABASE).
	DefaultManagementDB = "postgres"
)

// HTTP service defaults.
const (
	DefaultPort          = 5000
	DefaultJWTExpiry     = 7 * 24 * time.Hour
	DefaultShutdownGrace = 10 * time.Second
	MinPasswordLength    = 6
)
