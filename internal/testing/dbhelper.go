// Package testing provides database fixtures shared by integration tests.
package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/vvka-141/budgetbuddy/internal/db"
	"github.com/vvka-141/budgetbuddy/internal/db/manager"
	"github.com/vvka-141/budgetbuddy/internal/gateway"
	"github.com/vvka-141/budgetbuddy/internal/logging"
	"github.com/vvka-141/budgetbuddy/internal/schema"
	"github.com/vvka-141/budgetbuddy/internal/testinfra"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// TestConnEnv names the variable that points tests at an existing server.
const TestConnEnv = "BUDGETBUDDY_TEST_CONN"

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test server connection string.
// Priority: BUDGETBUDDY_TEST_CONN > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv(TestConnEnv); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", TestConnEnv, err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// NewTestDatabase creates an empty database on the test server and drops it
// when the test completes. It returns the connection config for the new database.
func NewTestDatabase(t *testing.T) *budgetbuddy.ConnectionConfig {
	t.Helper()

	ctx := context.Background()
	conn, err := db.ParseConnectionString(RequireDatabase(t))
	if err != nil {
		t.Fatalf("Failed to parse test connection string: %v", err)
	}

	maintenance := db.MaintenanceConnection(conn)
	pool, err := db.NewStandardConnector(maintenance, budgetbuddy.DefaultPoolSettings(), logging.Discard()).
		Connect(ctx, budgetbuddy.PoolHooks{})
	if err != nil {
		t.Fatalf("Failed to connect to maintenance database: %v", err)
	}
	t.Cleanup(pool.Close)

	admin, ok := pool.(budgetbuddy.DBConnection)
	if !ok {
		t.Fatalf("maintenance pool %T cannot run DDL", pool)
	}

	dbName := "bb_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	if err := manager.New().Create(ctx, admin, dbName); err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS %q WITH (FORCE)", dbName))
	})

	target := *conn
	target.Database = dbName
	return &target
}

// NewTestGateway returns an initialized gateway on a fresh database with the
// budgetbuddy schema applied.
func NewTestGateway(t *testing.T) *gateway.Gateway {
	t.Helper()

	ctx := context.Background()
	conn := NewTestDatabase(t)

	gw := gateway.New(db.NewStandardConnector(conn, budgetbuddy.DefaultPoolSettings(), logging.Discard()))
	t.Cleanup(func() { _ = gw.Shutdown(context.Background()) })

	if err := gw.Initialize(ctx); err != nil {
		t.Fatalf("Failed to initialize gateway: %v", err)
	}
	if err := schema.Apply(ctx, gw, logging.Discard()); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	return gw
}
