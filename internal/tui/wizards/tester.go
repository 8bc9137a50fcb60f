package wizards

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/budgetbuddy/internal/config"
	"github.com/vvka-141/budgetbuddy/internal/db"
)

// PgxTester connects once with pgx using the entered settings.
type PgxTester struct{}

// TestConnection resolves values the way `budgetbuddy serve` does and runs
// SELECT version() on the configured database.
func (PgxTester) TestConnection(ctx context.Context, values map[string]string) (string, error) {
	cfg, err := config.Load(config.LoadOptions{Environment: values})
	if err != nil {
		return "", err
	}
	conn, err := db.ResolveConnection(cfg)
	if err != nil {
		return "", err
	}

	pgConn, err := pgx.Connect(ctx, db.BuildConnectionString(conn))
	if err != nil {
		return "", db.WrapConnectionError(err, conn.Host, conn.Port, conn.Database)
	}
	defer pgConn.Close(ctx)

	var version string
	if err := pgConn.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	return fmt.Sprintf("Connected to %s:%d/%s (%s)", conn.Host, conn.Port, conn.Database, shortVersion(version)), nil
}

// shortVersion keeps "PostgreSQL 16.2" from the full version banner.
func shortVersion(v string) string {
	fields := strings.Fields(v)
	if len(fields) < 2 {
		return v
	}
	return fields[0] + " " + fields[1]
}
