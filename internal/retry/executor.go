package retry

import (
	"context"
	"time"

	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// Operation is one attempt of a retried call. attempt is 0 for the initial
// call and n for the n-th retry.
type Operation func(ctx context.Context, attempt int) error

// RetryFunc is notified before the executor waits for a retry.
// attempt is the one-based number of the retry about to happen.
type RetryFunc func(attempt int, err error, delay time.Duration)

// Executor orchestrates retry attempts with backoff and error classification.
//
// Thread Safety:
// The Executor itself is safe for concurrent use when calling Execute().
// WithOnRetry() returns a NEW instance; the original Executor remains unchanged.
type Executor struct {
	classifier budgetbuddy.ErrorClassifier
	strategy   budgetbuddy.BackoffStrategy
	onRetry    RetryFunc
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier budgetbuddy.ErrorClassifier, strategy budgetbuddy.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
	}
}

// WithOnRetry returns a new Executor with the specified retry callback.
func (e *Executor) WithOnRetry(callback RetryFunc) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs operation, retrying transient failures until the strategy's
// attempt budget is spent. It returns nil, the first non-transient error, the
// last transient error once retries are exhausted, or ctx.Err().
func (e *Executor) Execute(ctx context.Context, operation Operation) error {
	maxAttempts := e.strategy.MaxAttempts()

	lastErr := operation(ctx, 0)
	if lastErr == nil {
		return nil
	}
	if !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	// A negative budget retries until ctx ends.
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt+1, lastErr, delay)
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}

		lastErr = operation(ctx, attempt+1)
		if lastErr == nil {
			return nil
		}
		if !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
