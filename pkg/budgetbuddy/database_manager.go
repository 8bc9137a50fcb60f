package budgetbuddy

import "context"

// DatabaseManager runs server-level statements on the management database,
// as used by `budgetbuddy db create`.
type DatabaseManager interface {
	Exists(ctx context.Context, conn DBConnection, dbName string) (bool, error)
	Create(ctx context.Context, conn DBConnection, dbName string) error

	// EnsureExists creates dbName unless it already exists and reports whether it was created.
	EnsureExists(ctx context.Context, conn DBConnection, dbName string) (bool, error)
}
