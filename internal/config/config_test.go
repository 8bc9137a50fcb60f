package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "budget_buddy", cfg.Database.Name)

	pool := cfg.PoolSettings()
	assert.Equal(t, int32(20), pool.MaxConns)
	assert.Equal(t, 30*time.Second, pool.IdleTimeout)
	assert.Equal(t, 5*time.Second, pool.AcquireTimeout)
	assert.False(t, cfg.IsProduction())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	cfg, err := Load(LoadOptions{Environment: map[string]string{
		"PORT":                  "8080",
		"DB_HOST":               "db.internal",
		"DB_PORT":               "6432",
		"DB_USER":               "budget",
		"DB_PASSWORD":           "s3cret",
		"DB_NAME":               "finance",
		"DB_POOL_MAX":           "5",
		"DB_IDLE_TIMEOUT":       "1000",
		"DB_CONNECTION_TIMEOUT": "250",
		"JWT_SECRET":            "token-secret",
		"JWT_EXPIRES_IN":        "24h",
	}})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6432, cfg.Database.Port)
	assert.Equal(t, "budget", cfg.Database.User)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "finance", cfg.Database.Name)

	pool := cfg.PoolSettings()
	assert.Equal(t, int32(5), pool.MaxConns)
	assert.Equal(t, time.Second, pool.IdleTimeout)
	assert.Equal(t, 250*time.Millisecond, pool.AcquireTimeout)

	expiry, err := cfg.JWTExpiry()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, expiry)
}

func TestLoad_NodeEnvAlias(t *testing.T) {
	cfg, err := Load(LoadOptions{Environment: map[string]string{"NODE_ENV": "production"}})
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())

	cfg, err = Load(LoadOptions{Environment: map[string]string{"NODE_ENV": "production", "APP_ENV": "staging"}})
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Env)
}

func TestLoad_YAMLThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	content := `env: production
port: 7000
database:
  host: yamlhost
  name: yamldb
  pool_max: 8
log:
  level: debug
`
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(LoadOptions{
		ConfigPath:  path,
		Environment: map[string]string{"DB_HOST": "envhost"},
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "envhost", cfg.Database.Host)
	assert.Equal(t, "yamldb", cfg.Database.Name)
	assert.Equal(t, 8, cfg.Database.PoolMax)
	assert.Equal(t, "postgres", cfg.Database.User, "defaults survive partial YAML")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(LoadOptions{
		ConfigPath:  filepath.Join(t.TempDir(), ConfigFileName),
		Environment: map[string]string{},
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Database.Host)
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), ConfigFileName))
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0644))

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, budgetbuddy.ErrInvalidConfig)
}

func TestLoad_InvalidNumber(t *testing.T) {
	_, err := Load(LoadOptions{Environment: map[string]string{"DB_POOL_MAX": "many"}})
	assert.ErrorIs(t, err, budgetbuddy.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Env = EnvProduction
	cfg.Database.Host = ""
	cfg.Database.PoolMax = 0
	cfg.Database.AuthMethod = "kerberos"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, budgetbuddy.ErrInvalidConfig)
	assert.ErrorIs(t, err, budgetbuddy.ErrUnsupportedAuthMethod)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "pool max size")
}

func TestValidate_URLReplacesDiscreteFields(t *testing.T) {
	cfg := Default()
	cfg.Database.URL = "postgres://u:p@db:5432/app"
	cfg.Database.Host = ""
	cfg.Database.User = ""
	cfg.Database.Name = ""
	assert.NoError(t, cfg.Validate())
}

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 7 * 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"12h", 12 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"3600", time.Hour, false},
		{"0", 0, true},
		{"xd", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExpiry(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, budgetbuddy.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteEnvFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), EnvFileName)

	cfg := Default()
	cfg.Database.Password = "p@ss word"
	cfg.Auth.JWTSecret = "s3cret"
	require.NoError(t, WriteEnvFile(path, cfg.EnvValues()))

	env, err := godotenv.Read(path)
	require.NoError(t, err)

	loaded, err := Load(LoadOptions{Environment: env})
	require.NoError(t, err)
	assert.Equal(t, cfg.Database, loaded.Database)
	assert.Equal(t, cfg.Auth, loaded.Auth)
	assert.Equal(t, cfg.Port, loaded.Port)
	assert.Equal(t, cfg.Env, loaded.Env)
	assert.NoError(t, loaded.Validate())
}
