package db

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// GoogleCloudSQLConnector implements the Connector interface for Google Cloud SQL
// using IAM database authentication via the Cloud SQL Go Connector.
//
// One dialer is shared by every pool the connector builds, so rebuilt pools
// reuse its certificate cache. Implements io.Closer: call Close() once the
// last pool is closed.
type GoogleCloudSQLConnector struct {
	config   *budgetbuddy.ConnectionConfig
	settings budgetbuddy.PoolSettings
	logger   *slog.Logger

	mu     sync.Mutex
	dialer *cloudsqlconn.Dialer
}

// NewGoogleCloudSQLConnector creates a connector for config.GoogleInstance
// (format project:region:instance).
func NewGoogleCloudSQLConnector(config *budgetbuddy.ConnectionConfig, settings budgetbuddy.PoolSettings, logger *slog.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{
		config:   config,
		settings: settings,
		logger:   logger,
	}
}

func (c *GoogleCloudSQLConnector) getDialer(ctx context.Context) (*cloudsqlconn.Dialer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dialer != nil {
		return c.dialer, nil
	}

	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w", err)
	}
	c.dialer = dialer
	return dialer, nil
}

// Connect builds a pool that dials through the Cloud SQL connector.
// The connector handles authentication and TLS, so sslmode is disabled on the pgx side.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context, hooks budgetbuddy.PoolHooks) (budgetbuddy.Pool, error) {
	dialer, err := c.getDialer(ctx)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s dbname=%s sslmode=disable",
		c.config.GoogleInstance,
		c.config.Username,
		c.config.Database,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w: %w", budgetbuddy.ErrInvalidConfig, err)
	}

	instance := c.config.GoogleInstance
	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, instance)
	}

	configurePool(poolConfig, c.settings, hooks, c.logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL pool: %w", err)
	}

	return NewPoolAdapter(pool), nil
}

// Close releases the Cloud SQL dialer resources.
func (c *GoogleCloudSQLConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dialer != nil {
		err := c.dialer.Close()
		c.dialer = nil
		return err
	}
	return nil
}
