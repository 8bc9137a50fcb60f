// Package schema holds the budgetbuddy table definitions and applies them.
package schema

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vvka-141/budgetbuddy/internal/gateway"
)

// Statement is one named DDL step.
type Statement struct {
	Name string
	SQL  string
}

// Statements returns the schema in dependency order. Every statement is idempotent.
func Statements() []Statement {
	return []Statement{
		{"users", `CREATE TABLE IF NOT EXISTS users (
	id         SERIAL PRIMARY KEY,
	name       VARCHAR(100) NOT NULL,
	email      VARCHAR(100) NOT NULL UNIQUE,
	password   VARCHAR(100) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
		{"categories", `CREATE TABLE IF NOT EXISTS categories (
	id         SERIAL PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name       VARCHAR(100) NOT NULL,
	icon       VARCHAR(50) NOT NULL DEFAULT '',
	color      VARCHAR(20) NOT NULL,
	is_default BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
		{"expenses", `CREATE TABLE IF NOT EXISTS expenses (
	id          SERIAL PRIMARY KEY,
	user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
	amount      NUMERIC(12, 2) NOT NULL,
	description TEXT NOT NULL,
	date        DATE NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
		{"budgets", `CREATE TABLE IF NOT EXISTS budgets (
	id          SERIAL PRIMARY KEY,
	user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	amount      NUMERIC(12, 2) NOT NULL,
	month       INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
	year        INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, category_id, month, year)
)`},
		{"goals", `CREATE TABLE IF NOT EXISTS goals (
	id             SERIAL PRIMARY KEY,
	user_id        INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	category_id    INTEGER REFERENCES categories(id) ON DELETE SET NULL,
	name           VARCHAR(100) NOT NULL,
	target_amount  NUMERIC(12, 2) NOT NULL,
	current_amount NUMERIC(12, 2) NOT NULL DEFAULT 0,
	target_date    DATE NOT NULL,
	is_completed   BOOLEAN NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
		{"income", `CREATE TABLE IF NOT EXISTS income (
	id          SERIAL PRIMARY KEY,
	user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
	source      VARCHAR(100) NOT NULL,
	amount      NUMERIC(12, 2) NOT NULL,
	frequency   VARCHAR(50) NOT NULL,
	description TEXT,
	date        DATE NOT NULL DEFAULT CURRENT_DATE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
		{"bills", `CREATE TABLE IF NOT EXISTS bills (
	id           SERIAL PRIMARY KEY,
	user_id      INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	category_id  INTEGER REFERENCES categories(id) ON DELETE SET NULL,
	name         VARCHAR(100) NOT NULL,
	amount       NUMERIC(12, 2) NOT NULL,
	due_day      INTEGER NOT NULL CHECK (due_day BETWEEN 1 AND 31),
	is_recurring BOOLEAN NOT NULL DEFAULT true,
	is_paid      BOOLEAN NOT NULL DEFAULT false,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
		{"idx_categories_user", `CREATE INDEX IF NOT EXISTS idx_categories_user ON categories (user_id)`},
		{"idx_expenses_user_date", `CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses (user_id, date DESC)`},
		{"idx_expenses_category", `CREATE INDEX IF NOT EXISTS idx_expenses_category ON expenses (category_id)`},
		{"idx_budgets_user_period", `CREATE INDEX IF NOT EXISTS idx_budgets_user_period ON budgets (user_id, year, month)`},
		{"idx_goals_user", `CREATE INDEX IF NOT EXISTS idx_goals_user ON goals (user_id)`},
		{"idx_income_user_date", `CREATE INDEX IF NOT EXISTS idx_income_user_date ON income (user_id, date DESC)`},
		{"idx_bills_user_due", `CREATE INDEX IF NOT EXISTS idx_bills_user_due ON bills (user_id, due_day)`},
	}
}

// Tables lists the tables Apply creates.
func Tables() []string {
	return []string{"users", "categories", "expenses", "budgets", "goals", "income", "bills"}
}

// Apply runs every statement through q, one at a time, stopping at the first failure.
func Apply(ctx context.Context, q gateway.Querier, logger *slog.Logger) error {
	start := time.Now()
	for _, stmt := range Statements() {
		if _, err := q.Execute(ctx, stmt.SQL); err != nil {
			return fmt.Errorf("schema step %q: %w", stmt.Name, err)
		}
		logger.Debug("schema step applied", "step", stmt.Name)
	}
	logger.Info("schema applied", "steps", len(Statements()), "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// Missing returns the tables from Tables that do not exist in the public schema.
func Missing(ctx context.Context, q gateway.Querier) ([]string, error) {
	rs, err := q.Execute(ctx,
		`SELECT table_name::text AS table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_name = ANY($1)`,
		Tables())
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(rs.Rows))
	for _, row := range rs.Rows {
		if name, ok := row["table_name"].(string); ok {
			present[name] = true
		}
	}

	var missing []string
	for _, table := range Tables() {
		if !present[table] {
			missing = append(missing, table)
		}
	}
	return missing, nil
}
