package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/budgetbuddy/internal/auth"
	"github.com/vvka-141/budgetbuddy/internal/config"
	"github.com/vvka-141/budgetbuddy/internal/tui"
	"github.com/vvka-141/budgetbuddy/internal/tui/wizards"
)

var setupFlags struct {
	force  bool
	noTest bool
}

// errSetupCancelled is returned when the user leaves the wizard without saving.
var errSetupCancelled = errors.New("setup cancelled")

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a .env file for the service",
	Long: `Collect database and server settings and write them to the dotenv file.

On a terminal an interactive wizard walks through the settings and tests the
database connection. Otherwise (CI, pipes, BUDGETBUDDY_NON_INTERACTIVE=1) the
current configuration plus a freshly generated JWT_SECRET is written as is.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite an existing file without asking")
	setupCmd.Flags().BoolVar(&setupFlags.noTest, "no-test", false, "Skip the connection test")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	opts := loadOptions(cmd)
	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}

	defaults, err := setupDefaults(cfg)
	if err != nil {
		return err
	}

	interactive := tui.IsInteractive()
	if _, err := os.Stat(opts.EnvFile); err == nil && !setupFlags.force {
		if !interactive {
			return fmt.Errorf("%s already exists (use --force to overwrite): %w", opts.EnvFile, os.ErrExist)
		}
		if !tui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), opts.EnvFile+" already exists. Overwrite?") {
			return errSetupCancelled
		}
	}

	values := defaults
	if interactive {
		var wizardOpts []wizards.SetupOption
		if !setupFlags.noTest {
			wizardOpts = append(wizardOpts, wizards.WithTester(wizards.PgxTester{}))
		}
		result, err := wizards.RunSetupWizard(defaults, wizardOpts...)
		if err != nil {
			return err
		}
		if result.Cancelled {
			return errSetupCancelled
		}
		values = result.Values
	}

	if err := config.WriteEnvFile(opts.EnvFile, values); err != nil {
		return err
	}
	tui.NewStatus(cmd.OutOrStdout()).Success("Wrote " + opts.EnvFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Next: budgetbuddy db create && budgetbuddy db init && budgetbuddy serve")
	return nil
}

// setupDefaults returns the current settings with a generated JWT_SECRET
// when none is configured.
func setupDefaults(cfg *config.Config) (map[string]string, error) {
	if cfg.Auth.JWTSecret == "" {
		secret, err := auth.RandomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Auth.JWTSecret = secret
	}
	return cfg.EnvValues(), nil
}
