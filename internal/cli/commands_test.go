package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/budgetbuddy/internal/config"
	"github.com/vvka-141/budgetbuddy/internal/tui"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// clearEnv unsets every variable the configuration reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "NODE_ENV", "PORT", "DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD",
		"DB_NAME", "DB_SSLMODE", "DB_POOL_MAX", "DB_IDLE_TIMEOUT", "DB_CONNECTION_TIMEOUT",
		"DB_AUTH_METHOD", "JWT_SECRET", "JWT_EXPIRES_IN", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv(tui.NonInteractiveEnv, "1")
}

// runCommand executes the root command with args and captures both streams.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		setupFlags.force = false
		dbFlags.json = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "db", "setup", "version"} {
		assert.True(t, names[want], "missing command %q", want)
	}

	var dbNames []string
	for _, c := range dbCmd.Commands() {
		dbNames = append(dbNames, c.Name())
	}
	assert.ElementsMatch(t, []string{"init", "create", "check"}, dbNames)
}

func TestCommands_RejectArgs(t *testing.T) {
	for _, c := range []*cobra.Command{serveCmd, dbInitCmd, dbCreateCmd, dbCheckCmd, setupCmd, versionCmd} {
		err := c.Args(c, []string{"extra"})
		require.Error(t, err, c.Name())
		assert.Equal(t, budgetbuddy.ExitUsageError, budgetbuddy.ExitCodeForError(err), c.Name())
	}
}

func TestUnknownFlag_IsUsageError(t *testing.T) {
	_, err := runCommand(t, "serve", "--no-such-flag")
	require.Error(t, err)
	assert.Equal(t, budgetbuddy.ExitUsageError, budgetbuddy.ExitCodeForError(err))
}

func TestDBCheck_InvalidConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("DB_POOL_MAX", "0")

	_, err := runCommand(t, "db", "check",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--env-file", filepath.Join(dir, ".env"))
	require.Error(t, err)
	assert.ErrorIs(t, err, budgetbuddy.ErrInvalidConfig)
	assert.Equal(t, budgetbuddy.ExitConfigError, budgetbuddy.ExitCodeForError(err))
}

func TestServe_ProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("APP_ENV", "production")

	_, err := runCommand(t, "serve",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--env-file", filepath.Join(dir, ".env"))
	require.Error(t, err)
	assert.Equal(t, budgetbuddy.ExitConfigError, budgetbuddy.ExitCodeForError(err))
}

func TestNewIssuer_RandomSecretOutsideProduction(t *testing.T) {
	cfg := config.Default()

	tokens, err := newIssuer(cfg, discardLogger())
	require.NoError(t, err)

	token, _, err := tokens.Issue(7)
	require.NoError(t, err)
	id, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}

func TestNewIssuer_InvalidExpiry(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "secret"
	cfg.Auth.JWTExpiresIn = "soon"

	_, err := newIssuer(cfg, discardLogger())
	assert.ErrorIs(t, err, budgetbuddy.ErrInvalidConfig)
}

func TestSetup_NonInteractiveWritesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	t.Setenv("DB_HOST", "db.internal")

	out, err := runCommand(t, "setup",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+envFile)

	values, err := godotenv.Read(envFile)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", values["DB_HOST"])
	assert.Equal(t, "5000", values["PORT"])
	assert.Equal(t, "7d", values["JWT_EXPIRES_IN"])
	assert.Len(t, values["JWT_SECRET"], 64)
}

func TestSetup_RefusesToOverwriteWithoutForce(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORT=6000\n"), 0o600))

	_, err := runCommand(t, "setup",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--env-file", envFile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))

	_, err = runCommand(t, "setup", "--force",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--env-file", envFile)
	require.NoError(t, err)

	values, err := godotenv.Read(envFile)
	require.NoError(t, err)
	assert.Equal(t, "6000", values["PORT"], "existing settings are loaded before rewriting")
	assert.NotEmpty(t, values["JWT_SECRET"])
}

func TestSetupDefaults_KeepsConfiguredSecret(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "keep-me"

	values, err := setupDefaults(cfg)
	require.NoError(t, err)
	assert.Equal(t, "keep-me", values["JWT_SECRET"])
}
