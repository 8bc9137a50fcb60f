package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vvka-141/budgetbuddy/internal/gateway"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

const billSelect = `SELECT b.id, b.user_id, b.category_id, b.name, b.amount, b.due_day, b.is_recurring,
	b.is_paid, b.created_at,
	c.name AS category_name, c.icon AS category_icon, c.color AS category_color`

// BillInput is the writable part of a bill.
type BillInput struct {
	CategoryID  *int
	Name        string
	Amount      decimal.Decimal
	DueDay      int
	IsRecurring bool
	IsPaid      bool
}

// Validate checks the due day is a day of the month.
func (in BillInput) Validate() error {
	if in.DueDay < 1 || in.DueDay > 31 {
		return fmt.Errorf("%w: due date must be a day between 1 and 31, got %d", budgetbuddy.ErrInvalidInput, in.DueDay)
	}
	return nil
}

// Bills persists bills due on a fixed day every month.
type Bills struct {
	q gateway.Querier
}

func (r *Bills) List(ctx context.Context, userID int) ([]Bill, error) {
	return gateway.CollectRows[Bill](ctx, r.q, billSelect+`
FROM bills b LEFT JOIN categories c ON c.id = b.category_id
WHERE b.user_id = $1
ORDER BY b.due_day, b.id`, userID)
}

func (r *Bills) Get(ctx context.Context, id, userID int) (*Bill, error) {
	return gateway.CollectOne[Bill](ctx, r.q, billSelect+`
FROM bills b LEFT JOIN categories c ON c.id = b.category_id
WHERE b.id = $1 AND b.user_id = $2`, id, userID)
}

func (r *Bills) Create(ctx context.Context, userID int, in BillInput) (*Bill, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ownsCategory(ctx, r.q, userID, in.CategoryID); err != nil {
		return nil, err
	}
	return gateway.CollectOne[Bill](ctx, r.q, `WITH b AS (
	INSERT INTO bills (user_id, category_id, name, amount, due_day, is_recurring, is_paid)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING *
)
`+billSelect+`
FROM b LEFT JOIN categories c ON c.id = b.category_id`,
		userID, in.CategoryID, in.Name, in.Amount, in.DueDay, in.IsRecurring, in.IsPaid)
}

func (r *Bills) Update(ctx context.Context, id, userID int, in BillInput) (*Bill, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ownsCategory(ctx, r.q, userID, in.CategoryID); err != nil {
		return nil, err
	}
	return gateway.CollectOne[Bill](ctx, r.q, `WITH b AS (
	UPDATE bills SET category_id = $1, name = $2, amount = $3, due_day = $4, is_recurring = $5, is_paid = $6
	WHERE id = $7 AND user_id = $8
	RETURNING *
)
`+billSelect+`
FROM b LEFT JOIN categories c ON c.id = b.category_id`,
		in.CategoryID, in.Name, in.Amount, in.DueDay, in.IsRecurring, in.IsPaid, id, userID)
}

func (r *Bills) Delete(ctx context.Context, id, userID int) error {
	return expectOne(gateway.Exec(ctx, r.q, `DELETE FROM bills WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *Bills) SetPaid(ctx context.Context, id, userID int, paid bool) (*Bill, error) {
	return r.setPaid(ctx, `$3::boolean`, id, userID, paid)
}

// TogglePaid flips the paid flag of a bill.
func (r *Bills) TogglePaid(ctx context.Context, id, userID int) (*Bill, error) {
	return r.setPaid(ctx, `NOT b0.is_paid`, id, userID)
}

// Upcoming lists unpaid bills due on or after the day of today.
func (r *Bills) Upcoming(ctx context.Context, userID int, today time.Time) ([]Bill, error) {
	return gateway.CollectRows[Bill](ctx, r.q, billSelect+`
FROM bills b LEFT JOIN categories c ON c.id = b.category_id
WHERE b.user_id = $1 AND NOT b.is_paid AND b.due_day >= $2
ORDER BY b.due_day, b.id`, userID, today.Day())
}

// Overdue lists unpaid bills whose due day of the current month has passed.
func (r *Bills) Overdue(ctx context.Context, userID int, today time.Time) ([]Bill, error) {
	return gateway.CollectRows[Bill](ctx, r.q, billSelect+`
FROM bills b LEFT JOIN categories c ON c.id = b.category_id
WHERE b.user_id = $1 AND NOT b.is_paid AND b.due_day < $2
ORDER BY b.due_day, b.id`, userID, today.Day())
}

// ByMonth lists the bills falling due in period with their concrete due date.
// Due days past the end of a short month fall on its last day.
func (r *Bills) ByMonth(ctx context.Context, userID int, period Period) ([]Bill, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return gateway.CollectRows[Bill](ctx, r.q, billSelect+`,
	($2::date + (LEAST(b.due_day, EXTRACT(DAY FROM $3::date - 1)::int) - 1)) AS due_on
FROM bills b LEFT JOIN categories c ON c.id = b.category_id
WHERE b.user_id = $1 AND (b.is_recurring OR (b.created_at >= $2::date AND b.created_at < $3::date))
ORDER BY b.due_day, b.id`, userID, period.Start(), period.End())
}

// ResetRecurring marks every recurring bill of the user unpaid and reports how many changed.
func (r *Bills) ResetRecurring(ctx context.Context, userID int) (int64, error) {
	return gateway.Exec(ctx, r.q,
		`UPDATE bills SET is_paid = false WHERE user_id = $1 AND is_recurring AND is_paid`, userID)
}

// setPaid assigns expr to is_paid; extra args bind from $3 on.
func (r *Bills) setPaid(ctx context.Context, expr string, id, userID int, args ...any) (*Bill, error) {
	return gateway.CollectOne[Bill](ctx, r.q, `WITH b AS (
	UPDATE bills b0 SET is_paid = `+expr+`
	WHERE b0.id = $1 AND b0.user_id = $2
	RETURNING b0.*
)
`+billSelect+`
FROM b LEFT JOIN categories c ON c.id = b.category_id`, append([]any{id, userID}, args...)...)
}
