package budgetbuddy

import "time"

// ErrorClassifier decides whether a failed statement may be run again on a
// fresh connection.
type ErrorClassifier interface {
	IsTransient(err error) bool
}

// BackoffStrategy yields the wait before retry number attempt (zero-based).
// The gateway uses one for statement retries (100ms, 200ms, 400ms) and one
// for reconnect scheduling (1s doubling, ten attempts).
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration

	// MaxAttempts bounds the retries; 0 disables them.
	MaxAttempts() int
}
