package store

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vvka-141/budgetbuddy/internal/gateway"
)

const budgetSelect = `SELECT b.id, b.user_id, b.category_id, b.amount, b.month, b.year, b.created_at,
	c.name AS category_name, c.icon AS category_icon, c.color AS category_color`

// BudgetInput is the writable part of a budget.
type BudgetInput struct {
	CategoryID int
	Amount     decimal.Decimal
	Period
}

// Budgets persists monthly spending limits, at most one per category and month.
type Budgets struct {
	q gateway.Querier
}

func (r *Budgets) List(ctx context.Context, userID int) ([]Budget, error) {
	return gateway.CollectRows[Budget](ctx, r.q, budgetSelect+`
FROM budgets b JOIN categories c ON c.id = b.category_id
WHERE b.user_id = $1
ORDER BY b.year DESC, b.month DESC, c.name`, userID)
}

func (r *Budgets) ByPeriod(ctx context.Context, userID int, period Period) ([]Budget, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return gateway.CollectRows[Budget](ctx, r.q, budgetSelect+`
FROM budgets b JOIN categories c ON c.id = b.category_id
WHERE b.user_id = $1 AND b.month = $2 AND b.year = $3
ORDER BY c.name`, userID, period.Month, period.Year)
}

func (r *Budgets) Get(ctx context.Context, id, userID int) (*Budget, error) {
	return gateway.CollectOne[Budget](ctx, r.q, budgetSelect+`
FROM budgets b JOIN categories c ON c.id = b.category_id
WHERE b.id = $1 AND b.user_id = $2`, id, userID)
}

// Create inserts a budget. A second budget for the same category and month
// fails with budgetbuddy.ErrDuplicateRecord.
func (r *Budgets) Create(ctx context.Context, userID int, in BudgetInput) (*Budget, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ownsCategory(ctx, r.q, userID, &in.CategoryID); err != nil {
		return nil, err
	}
	return gateway.CollectOne[Budget](ctx, r.q, `WITH b AS (
	INSERT INTO budgets (user_id, category_id, amount, month, year)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING *
)
`+budgetSelect+`
FROM b JOIN categories c ON c.id = b.category_id`,
		userID, in.CategoryID, in.Amount, in.Month, in.Year)
}

func (r *Budgets) Update(ctx context.Context, id, userID int, in BudgetInput) (*Budget, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ownsCategory(ctx, r.q, userID, &in.CategoryID); err != nil {
		return nil, err
	}
	return gateway.CollectOne[Budget](ctx, r.q, `WITH b AS (
	UPDATE budgets SET category_id = $1, amount = $2, month = $3, year = $4
	WHERE id = $5 AND user_id = $6
	RETURNING *
)
`+budgetSelect+`
FROM b JOIN categories c ON c.id = b.category_id`,
		in.CategoryID, in.Amount, in.Month, in.Year, id, userID)
}

func (r *Budgets) Delete(ctx context.Context, id, userID int) error {
	return expectOne(gateway.Exec(ctx, r.q, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID))
}

// VsActual compares every budget of the month with the expenses filed under its category.
func (r *Budgets) VsActual(ctx context.Context, userID int, period Period) ([]BudgetVsActual, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return gateway.CollectRows[BudgetVsActual](ctx, r.q, `WITH actual AS (
	SELECT category_id, sum(amount) AS spent
	FROM expenses
	WHERE user_id = $1 AND date >= $4 AND date < $5
	GROUP BY category_id
)
SELECT b.category_id,
	c.name AS category_name, c.icon AS category_icon, c.color AS category_color,
	b.amount AS budget_amount,
	COALESCE(a.spent, 0) AS actual_amount,
	COALESCE(a.spent, 0) > b.amount AS is_over_budget,
	CASE WHEN b.amount > 0 THEN round(COALESCE(a.spent, 0) * 100 / b.amount, 2) ELSE 0 END AS percentage_used
FROM budgets b
JOIN categories c ON c.id = b.category_id
LEFT JOIN actual a ON a.category_id = b.category_id
WHERE b.user_id = $1 AND b.month = $2 AND b.year = $3
ORDER BY c.name`, userID, period.Month, period.Year, period.Start(), period.End())
}

// MonthlySummary lists the month's budgets with the amount spent against each.
func (r *Budgets) MonthlySummary(ctx context.Context, userID int, period Period) ([]BudgetSummary, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return gateway.CollectRows[BudgetSummary](ctx, r.q, `SELECT b.id, b.category_id,
	c.name AS category_name, c.icon AS category_icon, c.color AS category_color,
	b.amount AS budget_amount,
	COALESCE((
		SELECT sum(e.amount) FROM expenses e
		WHERE e.user_id = b.user_id AND e.category_id = b.category_id
			AND e.date >= $4 AND e.date < $5
	), 0) AS spent_amount
FROM budgets b
JOIN categories c ON c.id = b.category_id
WHERE b.user_id = $1 AND b.month = $2 AND b.year = $3
ORDER BY c.name`, userID, period.Month, period.Year, period.Start(), period.End())
}
