package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vvka-141/budgetbuddy/internal/gateway"
)

const goalSelect = `SELECT g.id, g.user_id, g.category_id, g.name, g.target_amount, g.current_amount,
	g.target_date, g.is_completed, g.created_at,
	c.name AS category_name, c.icon AS category_icon, c.color AS category_color`

// GoalInput is the writable part of a goal.
type GoalInput struct {
	CategoryID    *int
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    time.Time
}

// Goals persists savings goals. A goal is completed once current reaches target.
type Goals struct {
	q gateway.Querier
}

func (r *Goals) List(ctx context.Context, userID int) ([]Goal, error) {
	return r.list(ctx, `WHERE g.user_id = $1`, userID)
}

// Active lists goals that have not reached their target.
func (r *Goals) Active(ctx context.Context, userID int) ([]Goal, error) {
	return r.list(ctx, `WHERE g.user_id = $1 AND NOT g.is_completed`, userID)
}

func (r *Goals) Completed(ctx context.Context, userID int) ([]Goal, error) {
	return r.list(ctx, `WHERE g.user_id = $1 AND g.is_completed`, userID)
}

func (r *Goals) Get(ctx context.Context, id, userID int) (*Goal, error) {
	return gateway.CollectOne[Goal](ctx, r.q, goalSelect+`
FROM goals g LEFT JOIN categories c ON c.id = g.category_id
WHERE g.id = $1 AND g.user_id = $2`, id, userID)
}

func (r *Goals) Create(ctx context.Context, userID int, in GoalInput) (*Goal, error) {
	if err := ownsCategory(ctx, r.q, userID, in.CategoryID); err != nil {
		return nil, err
	}
	return gateway.CollectOne[Goal](ctx, r.q, `WITH g AS (
	INSERT INTO goals (user_id, category_id, name, target_amount, current_amount, target_date, is_completed)
	VALUES ($1, $2, $3, $4, $5, $6, $5 >= $4)
	RETURNING *
)
`+goalSelect+`
FROM g LEFT JOIN categories c ON c.id = g.category_id`,
		userID, in.CategoryID, in.Name, in.TargetAmount, in.CurrentAmount, in.TargetDate)
}

func (r *Goals) Update(ctx context.Context, id, userID int, in GoalInput) (*Goal, error) {
	if err := ownsCategory(ctx, r.q, userID, in.CategoryID); err != nil {
		return nil, err
	}
	return gateway.CollectOne[Goal](ctx, r.q, `WITH g AS (
	UPDATE goals SET category_id = $1, name = $2, target_amount = $3, current_amount = $4,
		target_date = $5, is_completed = $4 >= $3
	WHERE id = $6 AND user_id = $7
	RETURNING *
)
`+goalSelect+`
FROM g LEFT JOIN categories c ON c.id = g.category_id`,
		in.CategoryID, in.Name, in.TargetAmount, in.CurrentAmount, in.TargetDate, id, userID)
}

func (r *Goals) Delete(ctx context.Context, id, userID int) error {
	return expectOne(gateway.Exec(ctx, r.q, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID))
}

// SetProgress replaces the saved amount of a goal.
func (r *Goals) SetProgress(ctx context.Context, id, userID int, current decimal.Decimal) (*Goal, error) {
	return r.progress(ctx, `$1::numeric`, id, userID, current)
}

// AddProgress adds amount to the saved amount of a goal.
func (r *Goals) AddProgress(ctx context.Context, id, userID int, amount decimal.Decimal) (*Goal, error) {
	return r.progress(ctx, `current_amount + $1::numeric`, id, userID, amount)
}

// ProgressSummary aggregates all goals of the user.
func (r *Goals) ProgressSummary(ctx context.Context, userID int) (*GoalSummary, error) {
	return gateway.CollectOne[GoalSummary](ctx, r.q, `SELECT count(*) AS total_goals,
	count(*) FILTER (WHERE is_completed) AS completed_goals,
	COALESCE(sum(target_amount), 0) AS total_target_amount,
	COALESCE(sum(current_amount), 0) AS total_current_amount,
	CASE WHEN COALESCE(sum(target_amount), 0) > 0
		THEN round(sum(current_amount) * 100 / sum(target_amount), 2)
		ELSE 0 END AS overall_progress
FROM goals
WHERE user_id = $1`, userID)
}

func (r *Goals) list(ctx context.Context, where string, userID int) ([]Goal, error) {
	return gateway.CollectRows[Goal](ctx, r.q, goalSelect+`
FROM goals g LEFT JOIN categories c ON c.id = g.category_id
`+where+`
ORDER BY g.target_date, g.id`, userID)
}

// progress assigns expr to current_amount; expr refers to the amount as $1.
func (r *Goals) progress(ctx context.Context, expr string, id, userID int, amount decimal.Decimal) (*Goal, error) {
	return gateway.CollectOne[Goal](ctx, r.q, `WITH g AS (
	UPDATE goals SET current_amount = `+expr+`,
		is_completed = (`+expr+`) >= target_amount
	WHERE id = $2 AND user_id = $3
	RETURNING *
)
`+goalSelect+`
FROM g LEFT JOIN categories c ON c.id = g.category_id`, amount, id, userID)
}
