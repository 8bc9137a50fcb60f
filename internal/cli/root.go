// Package cli implements the budgetbuddy command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/budgetbuddy/internal/config"
	"github.com/vvka-141/budgetbuddy/internal/logging"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

const asciiLogo = `  _               _            _   _               _     _
 | |__  _   _  __| | __ _  ___| |_| |__  _   _  __| | __| |_   _
 | '_ \| | | |/ _' |/ _' |/ _ \ __| '_ \| | | |/ _' |/ _' | | | |
 | |_) | |_| | (_| | (_| |  __/ |_| |_) | |_| | (_| | (_| | |_| |
 |_.__/ \__,_|\__,_|\__, |\___|\__|_.__/ \__,_|\__,_|\__,_|\__, |
                    |___/                                  |___/`

var rootCmd = &cobra.Command{
	Use:   "budgetbuddy",
	Short: "Personal finance REST service",
	Long: asciiLogo + `

budgetbuddy tracks expenses, budgets, savings goals, income and bills
per user, served as a JSON API backed by PostgreSQL.

Configuration is read from budgetbuddy.yaml, then .env, then the
environment. Run 'budgetbuddy setup' to write a .env file.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  12 - Schema missing or could not be applied
  13 - SQL execution failed`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout, os.Stderr)
		return nil
	}
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", config.ConfigFileName, "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("env-file", config.EnvFileName, "Path to the dotenv file")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

func loadOptions(cmd *cobra.Command) config.LoadOptions {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.LoadOptions{ConfigPath: path, EnvFile: envFile}
}

// loadConfig reads and validates the configuration and builds the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(loadOptions(cmd))
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg, getVerboseFlag(cmd))
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(w io.Writer, cfg *config.Config, verbose bool) (*slog.Logger, error) {
	logger, err := logging.New(w, logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", budgetbuddy.ErrInvalidConfig, err)
	}
	return logger, nil
}
