package config

import (
	"fmt"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvValues returns the settings written by `budgetbuddy setup`, keyed by
// environment variable.
func (c *Config) EnvValues() map[string]string {
	return map[string]string{
		"APP_ENV":        c.Env,
		"PORT":           strconv.Itoa(c.Port),
		"DB_HOST":        c.Database.Host,
		"DB_PORT":        strconv.Itoa(c.Database.Port),
		"DB_NAME":        c.Database.Name,
		"DB_USER":        c.Database.User,
		"DB_PASSWORD":    c.Database.Password,
		"JWT_SECRET":     c.Auth.JWTSecret,
		"JWT_EXPIRES_IN": c.Auth.JWTExpiresIn,
		"LOG_LEVEL":      c.Log.Level,
	}
}

// WriteEnvFile writes values to path in dotenv format, replacing the file.
func WriteEnvFile(path string, values map[string]string) error {
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
