package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const (
	// ConfigFileName is the optional YAML file read from the working directory.
	ConfigFileName = "budgetbuddy.yaml"

	// EnvFileName is the dotenv file loaded before the environment is parsed.
	EnvFileName = ".env"

	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// DatabaseConfig holds connection and pool settings.
// Either URL or the discrete DB_* fields identify the server.
type DatabaseConfig struct {
	URL      string `yaml:"url,omitempty" env:"DATABASE_URL"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password,omitempty" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`
	// SSLMode overrides the production/non-production default when set.
	SSLMode string `yaml:"sslmode,omitempty" env:"DB_SSLMODE"`

	PoolMax             int `yaml:"pool_max" env:"DB_POOL_MAX"`
	IdleTimeoutMs       int `yaml:"idle_timeout_ms" env:"DB_IDLE_TIMEOUT"`
	ConnectionTimeoutMs int `yaml:"connection_timeout_ms" env:"DB_CONNECTION_TIMEOUT"`

	AuthMethod        string `yaml:"auth_method,omitempty" env:"DB_AUTH_METHOD"`
	AWSRegion         string `yaml:"aws_region,omitempty" env:"DB_AWS_REGION"`
	GoogleInstance    string `yaml:"google_instance,omitempty" env:"DB_GCP_INSTANCE"`
	AzureTenantID     string `yaml:"azure_tenant_id,omitempty" env:"AZURE_TENANT_ID"`
	AzureClientID     string `yaml:"azure_client_id,omitempty" env:"AZURE_CLIENT_ID"`
	AzureClientSecret string `yaml:"-" env:"AZURE_CLIENT_SECRET"`

	Tracing bool `yaml:"tracing" env:"DB_TRACING"`
}

// AuthConfig holds token settings.
type AuthConfig struct {
	JWTSecret    string `yaml:"-" env:"JWT_SECRET"`
	JWTExpiresIn string `yaml:"jwt_expires_in" env:"JWT_EXPIRES_IN"`
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Config is the complete service configuration.
type Config struct {
	Env      string         `yaml:"env" env:"APP_ENV"`
	Port     int            `yaml:"port" env:"PORT"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`

	// NodeEnv is accepted as an alias for Env.
	NodeEnv string `yaml:"-" env:"NODE_ENV"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Env:  EnvDevelopment,
		Port: budgetbuddy.DefaultPort,
		Database: DatabaseConfig{
			Host:                "localhost",
			Port:                5432,
			User:                "postgres",
			Name:                "budget_buddy",
			PoolMax:             budgetbuddy.DefaultPoolMaxConns,
			IdleTimeoutMs:       int(budgetbuddy.DefaultIdleTimeout / time.Millisecond),
			ConnectionTimeoutMs: int(budgetbuddy.DefaultAcquireTimeout / time.Millisecond),
		},
		Auth: AuthConfig{
			JWTExpiresIn: "7d",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigPath is the YAML file; a missing file is not an error.
	ConfigPath string
	// EnvFile is the dotenv file; a missing file is not an error.
	EnvFile string
	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

func (o LoadOptions) isSet(key string) bool {
	if o.Environment != nil {
		_, ok := o.Environment[key]
		return ok
	}
	_, ok := os.LookupEnv(key)
	return ok
}

// Load builds the configuration: defaults, then the YAML file, then the
// environment (after loading the dotenv file into it).
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if opts.EnvFile != "" && opts.Environment == nil {
		if err := godotenv.Load(opts.EnvFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
		}
	}

	if opts.ConfigPath != "" {
		if err := loadFile(opts.ConfigPath, cfg); err != nil && !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
	}

	envOpts := env.Options{}
	if opts.Environment != nil {
		envOpts.Environment = opts.Environment
	}
	if err := env.ParseWithOptions(cfg, envOpts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w: %w", budgetbuddy.ErrInvalidConfig, err)
	}

	if cfg.NodeEnv != "" && !opts.isSet("APP_ENV") {
		cfg.Env = cfg.NodeEnv
	}

	return cfg, nil
}

// LoadFile reads the YAML file at path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w: %w", path, budgetbuddy.ErrInvalidConfig, err)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// PoolSettings converts the millisecond settings to pool settings.
func (c *Config) PoolSettings() budgetbuddy.PoolSettings {
	return budgetbuddy.PoolSettings{
		MaxConns:       int32(c.Database.PoolMax),
		IdleTimeout:    time.Duration(c.Database.IdleTimeoutMs) * time.Millisecond,
		AcquireTimeout: time.Duration(c.Database.ConnectionTimeoutMs) * time.Millisecond,
		Tracing:        c.Database.Tracing,
	}
}

// JWTExpiry parses Auth.JWTExpiresIn.
func (c *Config) JWTExpiry() (time.Duration, error) {
	return ParseExpiry(c.Auth.JWTExpiresIn)
}

// Validate returns every configuration problem joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range: %w", c.Port, budgetbuddy.ErrInvalidConfig))
	}

	if c.Database.URL == "" {
		if c.Database.Host == "" && c.Database.GoogleInstance == "" {
			errs = append(errs, fmt.Errorf("DB_HOST or DATABASE_URL is required: %w", budgetbuddy.ErrInvalidConfig))
		}
		if c.Database.User == "" {
			errs = append(errs, fmt.Errorf("DB_USER is required: %w", budgetbuddy.ErrInvalidConfig))
		}
		if c.Database.Name == "" {
			errs = append(errs, fmt.Errorf("DB_NAME is required: %w", budgetbuddy.ErrInvalidConfig))
		}
	}

	if _, err := budgetbuddy.ParseAuthMethod(c.Database.AuthMethod); err != nil {
		errs = append(errs, err)
	}

	if err := c.PoolSettings().Validate(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.JWTExpiry(); err != nil {
		errs = append(errs, err)
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET is required in production: %w", budgetbuddy.ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ParseExpiry parses token lifetimes such as "7d", "12h" or "30m".
// A bare number is read as seconds.
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return budgetbuddy.DefaultJWTExpiry, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("JWT_EXPIRES_IN must be positive: %w", budgetbuddy.ErrInvalidConfig)
		}
		return time.Duration(n) * time.Second, nil
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid JWT_EXPIRES_IN %q: %w", s, budgetbuddy.ErrInvalidConfig)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid JWT_EXPIRES_IN %q: %w", s, budgetbuddy.ErrInvalidConfig)
	}
	return d, nil
}
