package budgetbuddy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is used to sign RDS IAM tokens (AuthMethodAWSIAM).
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name
	// ("project:region:instance") used with AuthMethodGoogleIAM.
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate reports missing connection parameters.
func (c *ConnectionConfig) Validate() error {
	var errs []error

	if c.Host == "" && c.GoogleInstance == "" {
		errs = append(errs, fmt.Errorf("database host is required: %w", ErrInvalidConfig))
	}
	if c.Database == "" {
		errs = append(errs, fmt.Errorf("database name is required: %w", ErrInvalidConfig))
	}
	if c.Username == "" {
		errs = append(errs, fmt.Errorf("database user is required: %w", ErrInvalidConfig))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("database port %d out of range: %w", c.Port, ErrInvalidConfig))
	}
	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnsupportedAuthMethod, c.AuthMethod))
	}
	if c.AuthMethod == AuthMethodAWSIAM && c.AWSRegion == "" {
		errs = append(errs, fmt.Errorf("AWS region is required for IAM authentication: %w", ErrInvalidConfig))
	}
	if c.AuthMethod == AuthMethodGoogleIAM && c.GoogleInstance == "" {
		errs = append(errs, fmt.Errorf("Cloud SQL instance is required for Google IAM authentication: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps a configuration value to an AuthMethod.
// The empty string selects standard password authentication.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam", "awsiam":
		return AuthMethodAWSIAM, nil
	case "google", "gcp", "google-iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "entra", "azure-entra-id":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("%w: %q", ErrUnsupportedAuthMethod, s)
	}
}

// PoolSettings sizes and bounds the connection pool.
type PoolSettings struct {
	MaxConns       int32
	IdleTimeout    time.Duration
	AcquireTimeout time.Duration
	// Tracing attaches an OpenTelemetry query tracer to every connection.
	Tracing bool
}

// DefaultPoolSettings returns the pool defaults.
func DefaultPoolSettings() PoolSettings {
	return PoolSettings{
		MaxConns:       DefaultPoolMaxConns,
		IdleTimeout:    DefaultIdleTimeout,
		AcquireTimeout: DefaultAcquireTimeout,
	}
}

// Validate checks the pool bounds.
func (s PoolSettings) Validate() error {
	var errs []error
	if s.MaxConns < 1 {
		errs = append(errs, fmt.Errorf("pool max size must be at least 1: %w", ErrInvalidConfig))
	}
	if s.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("idle timeout cannot be negative: %w", ErrInvalidConfig))
	}
	if s.AcquireTimeout <= 0 {
		errs = append(errs, fmt.Errorf("connection timeout must be positive: %w", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// RowSet is the buffered result of a statement.
type RowSet struct {
	Columns  []string
	Rows     []map[string]any
	RowCount int64
}

// HealthStatus is the coarse outcome of a health check.
type HealthStatus string

const (
	HealthOK    HealthStatus = "ok"
	HealthError HealthStatus = "error"
)

// HealthReport describes gateway health and pool occupancy.
type HealthReport struct {
	Status         HealthStatus `json:"status"`
	Healthy        bool         `json:"healthy"`
	State          string       `json:"state"`
	PoolTotal      int32        `json:"pool_total"`
	PoolIdle       int32        `json:"pool_idle"`
	PoolWaiting    int64        `json:"pool_waiting"`
	ResponseTimeMs int64        `json:"response_time_ms"`
	// ReconnectAttempts is the number of consecutive failed reconnects.
	ReconnectAttempts int    `json:"reconnect_attempts"`
	Error             string `json:"error,omitempty"`
}
