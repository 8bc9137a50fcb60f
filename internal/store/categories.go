package store

import (
	"context"
	"fmt"

	"github.com/vvka-141/budgetbuddy/internal/gateway"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

const categoryColumns = `id, user_id, name, icon, color, is_default, created_at`

// DefaultCategory is one entry of the set every new account starts with.
type DefaultCategory struct {
	Name  string
	Icon  string
	Color string
}

// DefaultCategories returns the categories seeded at registration.
func DefaultCategories() []DefaultCategory {
	return []DefaultCategory{
		{"Food & Dining", "restaurant", "#FF5722"},
		{"Transportation", "directions_car", "#2196F3"},
		{"Shopping", "shopping_cart", "#9C27B0"},
		{"Entertainment", "movie", "#E91E63"},
		{"Bills & Utilities", "receipt", "#F44336"},
		{"Healthcare", "local_hospital", "#4CAF50"},
		{"Education", "school", "#3F51B5"},
		{"Travel", "flight", "#00BCD4"},
		{"Personal Care", "spa", "#FF9800"},
		{"Other", "more_horiz", "#607D8B"},
	}
}

// CategoryInput is the writable part of a category.
type CategoryInput struct {
	Name  string
	Icon  string
	Color string
}

// Categories persists expense categories. Defaults are per user and read-only.
type Categories struct {
	q gateway.Querier
}

func (r *Categories) List(ctx context.Context, userID int) ([]Category, error) {
	return gateway.CollectRows[Category](ctx, r.q,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY is_default DESC, name`, userID)
}

func (r *Categories) Get(ctx context.Context, id, userID int) (*Category, error) {
	return gateway.CollectOne[Category](ctx, r.q,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *Categories) Create(ctx context.Context, userID int, in CategoryInput) (*Category, error) {
	return gateway.CollectOne[Category](ctx, r.q,
		`INSERT INTO categories (user_id, name, icon, color) VALUES ($1, $2, $3, $4) RETURNING `+categoryColumns,
		userID, in.Name, in.Icon, in.Color)
}

// Update changes a custom category. Defaults fail with budgetbuddy.ErrDefaultCategory.
func (r *Categories) Update(ctx context.Context, id, userID int, in CategoryInput) (*Category, error) {
	if err := r.requireCustom(ctx, id, userID); err != nil {
		return nil, err
	}
	return gateway.CollectOne[Category](ctx, r.q,
		`UPDATE categories SET name = $1, icon = $2, color = $3
WHERE id = $4 AND user_id = $5 AND NOT is_default
RETURNING `+categoryColumns,
		in.Name, in.Icon, in.Color, id, userID)
}

// Delete removes a custom category that no expense or budget refers to.
func (r *Categories) Delete(ctx context.Context, id, userID int) error {
	if err := r.requireCustom(ctx, id, userID); err != nil {
		return err
	}

	type usage struct {
		Expenses int `db:"expenses"`
		Budgets  int `db:"budgets"`
	}
	u, err := gateway.CollectOne[usage](ctx, r.q, `SELECT
	(SELECT count(*) FROM expenses WHERE category_id = $1 AND user_id = $2) AS expenses,
	(SELECT count(*) FROM budgets WHERE category_id = $1 AND user_id = $2) AS budgets`, id, userID)
	if err != nil {
		return err
	}
	if u.Expenses > 0 || u.Budgets > 0 {
		return fmt.Errorf("%w: %d expenses, %d budgets", budgetbuddy.ErrCategoryInUse, u.Expenses, u.Budgets)
	}

	return expectOne(gateway.Exec(ctx, r.q,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2 AND NOT is_default`, id, userID))
}

// WithTotals lists categories with the sum of their expenses, optionally within one month.
func (r *Categories) WithTotals(ctx context.Context, userID int, period *Period) ([]CategoryTotal, error) {
	var start, end any
	if period != nil {
		if err := period.Validate(); err != nil {
			return nil, err
		}
		start, end = period.Start(), period.End()
	}
	return gateway.CollectRows[CategoryTotal](ctx, r.q, `SELECT c.id, c.name, c.icon, c.color, c.is_default,
	COALESCE(sum(e.amount), 0) AS total_amount,
	count(e.id) AS transaction_count
FROM categories c
LEFT JOIN expenses e ON e.category_id = c.id AND e.user_id = c.user_id
	AND ($2::date IS NULL OR (e.date >= $2::date AND e.date < $3::date))
WHERE c.user_id = $1
GROUP BY c.id
ORDER BY total_amount DESC, c.name`, userID, start, end)
}

// CreateDefaults seeds DefaultCategories for a user in one statement.
func (r *Categories) CreateDefaults(ctx context.Context, userID int) ([]Category, error) {
	defaults := DefaultCategories()
	names := make([]string, len(defaults))
	icons := make([]string, len(defaults))
	colors := make([]string, len(defaults))
	for i, d := range defaults {
		names[i], icons[i], colors[i] = d.Name, d.Icon, d.Color
	}
	return gateway.CollectRows[Category](ctx, r.q,
		`INSERT INTO categories (user_id, name, icon, color, is_default)
SELECT $1, d.name, d.icon, d.color, true
FROM unnest($2::text[], $3::text[], $4::text[]) AS d(name, icon, color)
RETURNING `+categoryColumns,
		userID, names, icons, colors)
}

func (r *Categories) requireCustom(ctx context.Context, id, userID int) error {
	c, err := r.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if c.IsDefault {
		return budgetbuddy.ErrDefaultCategory
	}
	return nil
}
