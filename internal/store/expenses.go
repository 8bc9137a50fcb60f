package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vvka-141/budgetbuddy/internal/gateway"
)

const expenseSelect = `SELECT e.id, e.user_id, e.category_id, e.amount, e.description, e.date, e.created_at,
	c.name AS category_name, c.icon AS category_icon, c.color AS category_color`

// ExpenseInput is the writable part of an expense.
type ExpenseInput struct {
	CategoryID  *int
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

type Expenses struct {
	q gateway.Querier
}

// List returns the user's expenses, newest first.
func (r *Expenses) List(ctx context.Context, userID int) ([]Expense, error) {
	return gateway.CollectRows[Expense](ctx, r.q, expenseSelect+`
FROM expenses e LEFT JOIN categories c ON c.id = e.category_id
WHERE e.user_id = $1
ORDER BY e.date DESC, e.id DESC`, userID)
}

func (r *Expenses) Get(ctx context.Context, id, userID int) (*Expense, error) {
	return gateway.CollectOne[Expense](ctx, r.q, expenseSelect+`
FROM expenses e LEFT JOIN categories c ON c.id = e.category_id
WHERE e.id = $1 AND e.user_id = $2`, id, userID)
}

func (r *Expenses) Create(ctx context.Context, userID int, in ExpenseInput) (*Expense, error) {
	if err := ownsCategory(ctx, r.q, userID, in.CategoryID); err != nil {
		return nil, err
	}
	return gateway.CollectOne[Expense](ctx, r.q, `WITH e AS (
	INSERT INTO expenses (user_id, category_id, amount, description, date)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING *
)
`+expenseSelect+`
FROM e LEFT JOIN categories c ON c.id = e.category_id`,
		userID, in.CategoryID, in.Amount, in.Description, in.Date)
}

func (r *Expenses) Update(ctx context.Context, id, userID int, in ExpenseInput) (*Expense, error) {
	if err := ownsCategory(ctx, r.q, userID, in.CategoryID); err != nil {
		return nil, err
	}
	return gateway.CollectOne[Expense](ctx, r.q, `WITH e AS (
	UPDATE expenses SET category_id = $1, amount = $2, description = $3, date = $4
	WHERE id = $5 AND user_id = $6
	RETURNING *
)
`+expenseSelect+`
FROM e LEFT JOIN categories c ON c.id = e.category_id`,
		in.CategoryID, in.Amount, in.Description, in.Date, id, userID)
}

func (r *Expenses) Delete(ctx context.Context, id, userID int) error {
	return expectOne(gateway.Exec(ctx, r.q, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID))
}

// Summary totals spending per category, optionally within one month.
// Uncategorized expenses are left out.
func (r *Expenses) Summary(ctx context.Context, userID int, period *Period) ([]ExpenseSummary, error) {
	var start, end any
	if period != nil {
		if err := period.Validate(); err != nil {
			return nil, err
		}
		start, end = period.Start(), period.End()
	}
	return gateway.CollectRows[ExpenseSummary](ctx, r.q, `SELECT c.id AS category_id,
	c.name AS category_name, c.icon AS category_icon, c.color AS category_color,
	sum(e.amount) AS total_amount,
	count(e.id) AS transaction_count
FROM expenses e
JOIN categories c ON c.id = e.category_id
WHERE e.user_id = $1
	AND ($2::date IS NULL OR (e.date >= $2::date AND e.date < $3::date))
GROUP BY c.id
ORDER BY total_amount DESC`, userID, start, end)
}

// ByMonth lists the expenses dated within period.
func (r *Expenses) ByMonth(ctx context.Context, userID int, period Period) ([]Expense, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return gateway.CollectRows[Expense](ctx, r.q, expenseSelect+`
FROM expenses e LEFT JOIN categories c ON c.id = e.category_id
WHERE e.user_id = $1 AND e.date >= $2 AND e.date < $3
ORDER BY e.date DESC, e.id DESC`, userID, period.Start(), period.End())
}
