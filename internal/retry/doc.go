// Package retry classifies PostgreSQL failures and retries transient ones
// with exponential backoff.
//
// Two classifiers are provided. QueryClassifier decides which statement
// failures are worth retrying (connection refused, 08003, 08006, 57P01) and
// maps every failure to a budgetbuddy.ErrorKind. IsConnectionLost reports
// failures that mean the pool itself lost the server and should be rebuilt.
//
// # Example Usage
//
//	classifier := retry.NewQueryClassifier()
//	executor := retry.NewExecutor(classifier, retry.NewQueryBackoff())
//
//	err := executor.Execute(ctx, func(ctx context.Context, attempt int) error {
//	    return runStatement(ctx)
//	})
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. Use WithOnRetry() to create
// independent configurations per goroutine.
package retry
