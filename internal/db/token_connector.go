package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// tokenExpiryWarning is the remaining token lifetime below which a warning is logged.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
//
// A fresh token is requested for every new physical connection, so a pool
// that outlives a token keeps connecting successfully.
type TokenBasedConnector struct {
	config        *budgetbuddy.ConnectionConfig
	settings      budgetbuddy.PoolSettings
	tokenProvider TokenProvider
	providerName  string
	logger        *slog.Logger
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error/warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(
	config *budgetbuddy.ConnectionConfig,
	settings budgetbuddy.PoolSettings,
	tokenProvider TokenProvider,
	providerName string,
	logger *slog.Logger,
) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		settings:      settings,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		logger:        logger,
	}
}

// Connect builds a pool whose connections authenticate with provider tokens.
func (c *TokenBasedConnector) Connect(ctx context.Context, hooks budgetbuddy.PoolHooks) (budgetbuddy.Pool, error) {
	withoutPassword := *c.config
	withoutPassword.Password = ""

	poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(&withoutPassword))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w: %w", budgetbuddy.ErrInvalidConfig, err)
	}

	configurePool(poolConfig, c.settings, hooks, c.logger)
	poolConfig.BeforeConnect = c.injectToken

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, WrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
	}

	return NewPoolAdapter(pool), nil
}

func (c *TokenBasedConnector) injectToken(ctx context.Context, connConfig *pgx.ConnConfig) error {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
	}

	if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
		c.logger.Warn("database token expires soon",
			"provider", c.tokenProvider.String(),
			"expires_in", remaining.Round(time.Second))
	}

	connConfig.Password = token
	return nil
}
