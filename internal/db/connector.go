package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// configurePool applies pool sizing and wires the gateway hooks into every connection.
func configurePool(poolConfig *pgxpool.Config, settings budgetbuddy.PoolSettings, hooks budgetbuddy.PoolHooks, logger *slog.Logger) {
	poolConfig.MaxConns = settings.MaxConns
	poolConfig.MinConns = 0
	poolConfig.MaxConnIdleTime = settings.IdleTimeout

	if settings.AcquireTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = settings.AcquireTimeout
	}

	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Debug("database notice", "severity", notice.Severity, "message", notice.Message)
	}

	if settings.Tracing {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	if hooks.OnConnect != nil {
		onConnect := hooks.OnConnect
		poolConfig.AfterConnect = func(context.Context, *pgx.Conn) error {
			onConnect()
			return nil
		}
	}
}

// StandardConnector implements the Connector interface for standard
// username/password authentication.
type StandardConnector struct {
	config   *budgetbuddy.ConnectionConfig
	settings budgetbuddy.PoolSettings
	logger   *slog.Logger
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *budgetbuddy.ConnectionConfig, settings budgetbuddy.PoolSettings, logger *slog.Logger) *StandardConnector {
	return &StandardConnector{
		config:   config,
		settings: settings,
		logger:   logger,
	}
}

// Connect builds a pool for the configured server. Connections are opened lazily.
func (c *StandardConnector) Connect(ctx context.Context, hooks budgetbuddy.PoolHooks) (budgetbuddy.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(c.config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w: %w", budgetbuddy.ErrInvalidConfig, err)
	}

	configurePool(poolConfig, c.settings, hooks, c.logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, WrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
	}

	return NewPoolAdapter(pool), nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *budgetbuddy.ConnectionConfig, settings budgetbuddy.PoolSettings, logger *slog.Logger) (budgetbuddy.Connector, error) {
	switch config.AuthMethod {
	case budgetbuddy.AuthMethodStandard:
		return NewStandardConnector(config, settings, logger), nil
	case budgetbuddy.AuthMethodAWSIAM:
		return newAWSConnector(config, settings, logger)
	case budgetbuddy.AuthMethodGoogleIAM:
		return newGoogleConnector(config, settings, logger)
	case budgetbuddy.AuthMethodAzureEntraID:
		return newAzureConnector(config, settings, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, budgetbuddy.ErrUnsupportedAuthMethod)
	}
}

// WrapConnectionError wraps raw pgx connection errors with actionable guidance.
func WrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong DB_HOST or DB_PORT
  - Firewall blocking the connection

Original error: %w`, addr, host, port, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - DB_HOST is misspelled
  - DNS is not configured or reachable

Original error: %w`, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong DB_PASSWORD
  - Wrong DB_USER
  - User does not have access to the database

Original error: %w`, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

To create it:
  budgetbuddy db create

Original error: %w`, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Wrong host/port (server not listening)
  - DB_CONNECTION_TIMEOUT too low

Original error: %w`, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server requires SSL but APP_ENV is not "production"
  - Server does not support SSL but APP_ENV is "production"

Original error: %w`, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`too many connections to database "%s"

Possible causes:
  - max_connections reached in postgresql.conf
  - DB_POOL_MAX higher than the server allows

Original error: %w`, database, err)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *budgetbuddy.ConnectionConfig, settings budgetbuddy.PoolSettings, logger *slog.Logger) (budgetbuddy.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}

	return NewTokenBasedConnector(config, settings, tokenProvider, "AWS IAM", logger), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *budgetbuddy.ConnectionConfig, settings budgetbuddy.PoolSettings, logger *slog.Logger) (budgetbuddy.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires DB_GCP_INSTANCE (project:region:instance): %w", budgetbuddy.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires DB_USER: %w", budgetbuddy.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, settings, logger), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID token provider.
// If explicit credentials (tenant, client, secret) are provided, uses Service Principal auth.
// Otherwise, falls back to DefaultAzureCredential chain.
func newAzureConnector(config *budgetbuddy.ConnectionConfig, settings budgetbuddy.PoolSettings, logger *slog.Logger) (budgetbuddy.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, settings, tokenProvider, "Azure", logger), nil
}
