package db

import (
	"fmt"

	"github.com/vvka-141/budgetbuddy/internal/config"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

const appName = "budgetbuddy"

// ResolveConnection builds the ConnectionConfig for the service database.
//
// Precedence:
//  1. DATABASE_URL, when set, supplies host, port, credentials and database
//  2. DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME otherwise
//
// TLS: DB_SSLMODE (or sslmode in DATABASE_URL) wins; otherwise production
// mode requires TLS and every other mode disables it.
//
// The cloud auth method, when configured, is attached to either form.
func ResolveConnection(cfg *config.Config) (*budgetbuddy.ConnectionConfig, error) {
	dbCfg := cfg.Database

	var conn *budgetbuddy.ConnectionConfig
	if dbCfg.URL != "" {
		parsed, err := ParseConnectionString(dbCfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w: %w", budgetbuddy.ErrInvalidConfig, err)
		}
		conn = parsed
	} else {
		conn = &budgetbuddy.ConnectionConfig{
			Host:             dbCfg.Host,
			Port:             dbCfg.Port,
			Database:         dbCfg.Name,
			Username:         dbCfg.User,
			Password:         dbCfg.Password,
			AdditionalParams: make(map[string]string),
		}
	}

	switch {
	case dbCfg.SSLMode != "":
		conn.SSLMode = dbCfg.SSLMode
	case conn.SSLMode != "":
	case cfg.IsProduction():
		conn.SSLMode = "require"
	default:
		conn.SSLMode = "disable"
	}

	if conn.AppName == "" {
		conn.AppName = appName
	}

	method, err := budgetbuddy.ParseAuthMethod(dbCfg.AuthMethod)
	if err != nil {
		return nil, err
	}
	applyCloudAuth(conn, method, dbCfg)

	if err := conn.Validate(); err != nil {
		return nil, err
	}

	return conn, nil
}

// applyCloudAuth attaches provider settings for the selected auth method.
// Azure credentials present in the environment switch an unset method to Entra ID.
func applyCloudAuth(conn *budgetbuddy.ConnectionConfig, method budgetbuddy.AuthMethod, dbCfg config.DatabaseConfig) {
	if method == budgetbuddy.AuthMethodStandard && dbCfg.AuthMethod == "" &&
		(dbCfg.AzureTenantID != "" || dbCfg.AzureClientID != "") {
		method = budgetbuddy.AuthMethodAzureEntraID
	}

	conn.AuthMethod = method
	switch method {
	case budgetbuddy.AuthMethodAWSIAM:
		conn.AWSRegion = dbCfg.AWSRegion
	case budgetbuddy.AuthMethodGoogleIAM:
		conn.GoogleInstance = dbCfg.GoogleInstance
	case budgetbuddy.AuthMethodAzureEntraID:
		conn.AzureTenantID = dbCfg.AzureTenantID
		conn.AzureClientID = dbCfg.AzureClientID
		conn.AzureClientSecret = dbCfg.AzureClientSecret
	}
}

// MaintenanceConnection returns a copy of conn pointed at the management database,
// used for server-level operations such as CREATE DATABASE.
func MaintenanceConnection(conn *budgetbuddy.ConnectionConfig) *budgetbuddy.ConnectionConfig {
	maintenance := *conn
	maintenance.Database = budgetbuddy.DefaultManagementDB
	return &maintenance
}
