package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/vvka-141/budgetbuddy/internal/api"
	"github.com/vvka-141/budgetbuddy/internal/auth"
	"github.com/vvka-141/budgetbuddy/internal/config"
	"github.com/vvka-141/budgetbuddy/internal/logging"
	"github.com/vvka-141/budgetbuddy/internal/schema"
	"github.com/vvka-141/budgetbuddy/internal/store"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

var serveFlags struct {
	port    int
	migrate bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the budgetbuddy HTTP API.

The server starts even when the database is unreachable: requests fail with
503 and /api/health reports the outage until the gateway reconnects.
SIGINT or SIGTERM stops accepting requests and drains in-flight ones.`,
	Example: `  budgetbuddy serve
  budgetbuddy serve --port 8080 --migrate`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&serveFlags.port, "port", "p", 0, "HTTP port (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveFlags.migrate, "migrate", false, "Create missing tables before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveFlags.port != 0 {
		cfg.Port = serveFlags.port
	}

	tokens, err := newIssuer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := newGateway(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), budgetbuddy.DefaultShutdownGrace)
		defer cancel()
		gw.close(shutdownCtx)
	}()

	if err := gw.Initialize(ctx); err != nil {
		if errors.Is(err, budgetbuddy.ErrInvalidConfig) {
			return err
		}
		logger.Error("database unavailable at startup, serving in degraded mode", logging.Err(err))
	} else if serveFlags.migrate {
		if err := schema.Apply(ctx, gw, logger); err != nil {
			return fmt.Errorf("%w: %w", budgetbuddy.ErrSchemaMissing, err)
		}
	}

	if !getVerboseFlag(cmd) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Health: gw,
		Store:  store.New(gw),
		Tokens: tokens,
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serveUntilDone(ctx, srv, logger, cfg.Env)
}

// serveUntilDone runs srv until ctx ends, then shuts it down gracefully.
func serveUntilDone(ctx context.Context, srv *http.Server, logger *slog.Logger, env string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "grace", budgetbuddy.DefaultShutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), budgetbuddy.DefaultShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newIssuer builds the token issuer. Outside production a missing secret is
// replaced by a random one, which invalidates tokens on every restart.
func newIssuer(cfg *config.Config, logger *slog.Logger) (*auth.Issuer, error) {
	expiry, err := cfg.JWTExpiry()
	if err != nil {
		return nil, err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production: %w", budgetbuddy.ErrInvalidConfig)
		}
		secret, err = auth.RandomSecret()
		if err != nil {
			return nil, err
		}
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	return auth.NewIssuer(secret, expiry)
}
