package cli

import (
	"context"
	"log/slog"

	"github.com/vvka-141/budgetbuddy/internal/config"
	"github.com/vvka-141/budgetbuddy/internal/db"
	"github.com/vvka-141/budgetbuddy/internal/gateway"
	"github.com/vvka-141/budgetbuddy/internal/logging"
)

// gatewayHandle is a gateway plus the logger used to report its shutdown.
type gatewayHandle struct {
	*gateway.Gateway
	logger *slog.Logger
}

// newGateway builds an uninitialized gateway for cfg. Call Initialize before use.
func newGateway(cfg *config.Config, logger *slog.Logger) (*gatewayHandle, error) {
	conn, err := db.ResolveConnection(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved database connection", "target", db.RedactConnectionString(conn), "auth", conn.AuthMethod.String())

	settings := cfg.PoolSettings()
	connector, err := db.NewConnector(conn, settings, logger)
	if err != nil {
		return nil, err
	}

	return &gatewayHandle{
		Gateway: gateway.New(connector,
			gateway.WithLogger(logger),
			gateway.WithAcquireTimeout(settings.AcquireTimeout),
		),
		logger: logger,
	}, nil
}

// close shuts the gateway down. Shutdown also closes connectors that hold
// resources of their own, such as the Cloud SQL dialer.
func (h *gatewayHandle) close(ctx context.Context) {
	if err := h.Shutdown(ctx); err != nil {
		h.logger.Warn("gateway shutdown incomplete", logging.Err(err))
	}
}
