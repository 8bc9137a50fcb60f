package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/budgetbuddy/internal/db"
	"github.com/vvka-141/budgetbuddy/internal/db/manager"
	"github.com/vvka-141/budgetbuddy/internal/schema"
	"github.com/vvka-141/budgetbuddy/internal/tui"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

var dbFlags struct {
	timeout time.Duration
	json    bool
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the budgetbuddy database",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create tables and indexes",
	Long:  "Create every table and index the service needs. Existing objects are left untouched, so the command can be re-run safely.",
	Args:  cobra.NoArgs,
	RunE:  runDBInit,
}

var dbCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the database if it does not exist",
	Long: `Connect to the management database (postgres) on the configured server
and create DB_NAME when it is missing.`,
	Args: cobra.NoArgs,
	RunE: runDBCreate,
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and database health",
	Example: `  budgetbuddy db check
  budgetbuddy db check --json`,
	Args: cobra.NoArgs,
	RunE: runDBCheck,
}

func init() {
	dbCmd.PersistentFlags().DurationVar(&dbFlags.timeout, "timeout", 30*time.Second, "Overall timeout for the command")
	dbCheckCmd.Flags().BoolVar(&dbFlags.json, "json", false, "Print the health report as JSON")

	dbCmd.AddCommand(dbInitCmd, dbCreateCmd, dbCheckCmd)
	rootCmd.AddCommand(dbCmd)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), dbFlags.timeout)
}

func runDBInit(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	status := tui.NewStatus(cmd.OutOrStdout())
	gw, err := newGateway(cfg, logger)
	if err != nil {
		return err
	}
	defer gw.close(ctx)

	status.Start("Connecting to " + cfg.Database.Name)
	if err := gw.Initialize(ctx); err != nil {
		status.Error("Connection failed")
		return err
	}

	status.Start("Applying schema")
	if err := schema.Apply(ctx, gw, logger); err != nil {
		status.Error("Schema could not be applied")
		return fmt.Errorf("%w: %w", budgetbuddy.ErrSchemaMissing, err)
	}
	status.Success(fmt.Sprintf("Schema ready (%s)", strings.Join(schema.Tables(), ", ")))
	return nil
}

func runDBCreate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	conn, err := db.ResolveConnection(cfg)
	if err != nil {
		return err
	}
	target := conn.Database
	maintenance := db.MaintenanceConnection(conn)

	settings := cfg.PoolSettings()
	settings.MaxConns = 1
	connector, err := db.NewConnector(maintenance, settings, logger)
	if err != nil {
		return err
	}
	pool, err := connector.Connect(ctx, budgetbuddy.PoolHooks{})
	if err != nil {
		return fmt.Errorf("%w: %w", budgetbuddy.ErrConnectionFailed, err)
	}
	defer pool.Close()

	admin, ok := pool.(budgetbuddy.DBConnection)
	if !ok {
		return fmt.Errorf("pool %T cannot run management statements", pool)
	}

	status := tui.NewStatus(cmd.OutOrStdout())
	created, err := manager.New().EnsureExists(ctx, admin, target)
	if err != nil {
		status.Error("Could not create " + target)
		return fmt.Errorf("%w: %w", budgetbuddy.ErrConnectionFailed, err)
	}
	if created {
		status.Success("Created database " + target)
	} else {
		status.Success("Database " + target + " already exists")
	}
	return nil
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	status := tui.NewStatus(cmd.ErrOrStderr())
	status.Success("Configuration valid (" + cfg.Env + ")")

	gw, err := newGateway(cfg, logger)
	if err != nil {
		return err
	}
	defer gw.close(ctx)

	if err := gw.Initialize(ctx); err != nil {
		status.Error("Database unreachable")
		return err
	}

	report := gw.CheckHealth(ctx)
	if dbFlags.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	if report.Status != budgetbuddy.HealthOK {
		status.Error("Health check failed: " + report.Error)
		return budgetbuddy.ErrConnectionUnavailable
	}
	status.Success(fmt.Sprintf("Database healthy (%dms, pool %d/%d idle)", report.ResponseTimeMs, report.PoolIdle, report.PoolTotal))

	missing, err := schema.Missing(ctx, gw)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		status.Error("Missing tables: " + strings.Join(missing, ", ") + " (run 'budgetbuddy db init')")
		return fmt.Errorf("%d tables missing: %w", len(missing), budgetbuddy.ErrSchemaMissing)
	}
	status.Success("Schema complete")
	return nil
}
