package gateway

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// Querier is the part of Gateway used by repositories.
type Querier interface {
	Execute(ctx context.Context, statement string, params ...any) (*budgetbuddy.RowSet, error)
	Query(ctx context.Context, collect budgetbuddy.CollectFunc, statement string, params ...any) error
}

var _ Querier = (*Gateway)(nil)

// CollectRows scans every row into T by matching column names to `db` struct tags.
// Every selected column must map to a field of T; fields without a column stay zero.
func CollectRows[T any](ctx context.Context, q Querier, statement string, params ...any) ([]T, error) {
	var out []T
	err := q.Query(ctx, func(rows pgx.Rows) error {
		collected, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
		if err != nil {
			return err
		}
		out = collected
		return nil
	}, statement, params...)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// CollectOne returns the first row as T, or budgetbuddy.ErrNotFound.
func CollectOne[T any](ctx context.Context, q Querier, statement string, params ...any) (*T, error) {
	rows, err := CollectRows[T](ctx, q, statement, params...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, budgetbuddy.ErrNotFound
	}
	return &rows[0], nil
}

// Exec runs a statement that returns no rows and reports the affected row count.
func Exec(ctx context.Context, q Querier, statement string, params ...any) (int64, error) {
	rs, err := q.Execute(ctx, statement, params...)
	if err != nil {
		return 0, err
	}
	return rs.RowCount, nil
}
