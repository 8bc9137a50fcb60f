package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/budgetbuddy/internal/config"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

func TestResolveConnection_DiscreteParams(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Password = "pw"

	conn, err := ResolveConnection(cfg)
	require.NoError(t, err)

	assert.Equal(t, "localhost", conn.Host)
	assert.Equal(t, 5432, conn.Port)
	assert.Equal(t, "postgres", conn.Username)
	assert.Equal(t, "pw", conn.Password)
	assert.Equal(t, "budget_buddy", conn.Database)
	assert.Equal(t, "disable", conn.SSLMode)
	assert.Equal(t, "budgetbuddy", conn.AppName)
	assert.Equal(t, budgetbuddy.AuthMethodStandard, conn.AuthMethod)
}

func TestResolveConnection_DatabaseURLWins(t *testing.T) {
	cfg := config.Default()
	cfg.Database.URL = "postgres://app:pw@url-host:6000/url_db"
	cfg.Database.Host = "ignored"

	conn, err := ResolveConnection(cfg)
	require.NoError(t, err)

	assert.Equal(t, "url-host", conn.Host)
	assert.Equal(t, 6000, conn.Port)
	assert.Equal(t, "url_db", conn.Database)
	assert.Equal(t, "app", conn.Username)
}

func TestResolveConnection_SSLMode(t *testing.T) {
	tests := []struct {
		name string
		env  string
		url  string
		mode string
		want string
	}{
		{"development disables tls", config.EnvDevelopment, "", "", "disable"},
		{"production requires tls", config.EnvProduction, "", "", "require"},
		{"url sslmode wins over mode", config.EnvProduction, "postgres://u@h/d?sslmode=verify-full", "", "verify-full"},
		{"explicit override wins", config.EnvProduction, "postgres://u@h/d?sslmode=verify-full", "prefer", "prefer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Env = tt.env
			cfg.Database.URL = tt.url
			cfg.Database.SSLMode = tt.mode

			conn, err := ResolveConnection(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, conn.SSLMode)
		})
	}
}

func TestResolveConnection_CloudAuth(t *testing.T) {
	cfg := config.Default()
	cfg.Database.AuthMethod = "aws"
	cfg.Database.AWSRegion = "eu-west-1"

	conn, err := ResolveConnection(cfg)
	require.NoError(t, err)
	assert.Equal(t, budgetbuddy.AuthMethodAWSIAM, conn.AuthMethod)
	assert.Equal(t, "eu-west-1", conn.AWSRegion)

	cfg = config.Default()
	cfg.Database.AzureTenantID = "tenant"
	cfg.Database.AzureClientID = "client"

	conn, err = ResolveConnection(cfg)
	require.NoError(t, err)
	assert.Equal(t, budgetbuddy.AuthMethodAzureEntraID, conn.AuthMethod)
	assert.Equal(t, "tenant", conn.AzureTenantID)
}

func TestResolveConnection_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Database.URL = "mysql://nope"
	_, err := ResolveConnection(cfg)
	assert.ErrorIs(t, err, budgetbuddy.ErrInvalidConfig)

	cfg = config.Default()
	cfg.Database.AuthMethod = "aws"
	_, err = ResolveConnection(cfg)
	assert.ErrorIs(t, err, budgetbuddy.ErrInvalidConfig, "aws without region")
}

func TestMaintenanceConnection(t *testing.T) {
	conn := &budgetbuddy.ConnectionConfig{Host: "h", Database: "budget_buddy"}
	m := MaintenanceConnection(conn)
	assert.Equal(t, "postgres", m.Database)
	assert.Equal(t, "budget_buddy", conn.Database)
}
