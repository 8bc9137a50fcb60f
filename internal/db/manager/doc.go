// Package manager provides server-level database operations for PostgreSQL.
//
// It checks whether the service database exists and creates it when missing,
// which `budgetbuddy db create` runs against the management database.
//
// Identifiers are quoted with pgx.Identifier.Sanitize(), so database names
// with spaces, quotes or other special characters are handled safely.
//
// # Example Usage
//
//	mgr := manager.New()
//	created, err := mgr.EnsureExists(ctx, conn, "budget_buddy")
package manager
