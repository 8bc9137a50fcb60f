package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vvka-141/budgetbuddy/internal/gateway"
)

const incomeSelect = `SELECT i.id, i.user_id, i.category_id, i.source, i.amount, i.frequency, i.description,
	i.date, i.created_at, i.updated_at,
	c.name AS category_name, c.icon AS category_icon, c.color AS category_color`

// IncomeInput is the writable part of an income record.
type IncomeInput struct {
	CategoryID  *int
	Source      string
	Amount      decimal.Decimal
	Frequency   string
	Description *string
	Date        time.Time
}

// IncomeRepo persists income records.
type IncomeRepo struct {
	q gateway.Querier
}

func (r *IncomeRepo) List(ctx context.Context, userID int) ([]Income, error) {
	return gateway.CollectRows[Income](ctx, r.q, incomeSelect+`
FROM income i LEFT JOIN categories c ON c.id = i.category_id
WHERE i.user_id = $1
ORDER BY i.date DESC, i.id DESC`, userID)
}

func (r *IncomeRepo) ByMonth(ctx context.Context, userID int, period Period) ([]Income, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return gateway.CollectRows[Income](ctx, r.q, incomeSelect+`
FROM income i LEFT JOIN categories c ON c.id = i.category_id
WHERE i.user_id = $1 AND i.date >= $2 AND i.date < $3
ORDER BY i.date DESC, i.id DESC`, userID, period.Start(), period.End())
}

func (r *IncomeRepo) Get(ctx context.Context, id, userID int) (*Income, error) {
	return gateway.CollectOne[Income](ctx, r.q, incomeSelect+`
FROM income i LEFT JOIN categories c ON c.id = i.category_id
WHERE i.id = $1 AND i.user_id = $2`, id, userID)
}

func (r *IncomeRepo) Create(ctx context.Context, userID int, in IncomeInput) (*Income, error) {
	if err := ownsCategory(ctx, r.q, userID, in.CategoryID); err != nil {
		return nil, err
	}
	return gateway.CollectOne[Income](ctx, r.q, `WITH i AS (
	INSERT INTO income (user_id, category_id, source, amount, frequency, description, date)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING *
)
`+incomeSelect+`
FROM i LEFT JOIN categories c ON c.id = i.category_id`,
		userID, in.CategoryID, in.Source, in.Amount, in.Frequency, in.Description, in.Date)
}

func (r *IncomeRepo) Update(ctx context.Context, id, userID int, in IncomeInput) (*Income, error) {
	if err := ownsCategory(ctx, r.q, userID, in.CategoryID); err != nil {
		return nil, err
	}
	return gateway.CollectOne[Income](ctx, r.q, `WITH i AS (
	UPDATE income SET category_id = $1, source = $2, amount = $3, frequency = $4,
		description = $5, date = $6, updated_at = now()
	WHERE id = $7 AND user_id = $8
	RETURNING *
)
`+incomeSelect+`
FROM i LEFT JOIN categories c ON c.id = i.category_id`,
		in.CategoryID, in.Source, in.Amount, in.Frequency, in.Description, in.Date, id, userID)
}

func (r *IncomeRepo) Delete(ctx context.Context, id, userID int) error {
	return expectOne(gateway.Exec(ctx, r.q, `DELETE FROM income WHERE id = $1 AND user_id = $2`, id, userID))
}
