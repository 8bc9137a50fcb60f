package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vvka-141/budgetbuddy/internal/gateway"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// Store groups the repositories that share one Querier.
type Store struct {
	Users      *Users
	Categories *Categories
	Expenses   *Expenses
	Budgets    *Budgets
	Goals      *Goals
	Income     *IncomeRepo
	Bills      *Bills
}

// New returns a Store issuing every statement through q.
func New(q gateway.Querier) *Store {
	if q == nil {
		panic("store: querier must not be nil")
	}
	return &Store{
		Users:      &Users{q: q},
		Categories: &Categories{q: q},
		Expenses:   &Expenses{q: q},
		Budgets:    &Budgets{q: q},
		Goals:      &Goals{q: q},
		Income:     &IncomeRepo{q: q},
		Bills:      &Bills{q: q},
	}
}

// Period is a calendar month.
type Period struct {
	Month int
	Year  int
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Validate checks the month and year are in range.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12, got %d", budgetbuddy.ErrInvalidInput, p.Month)
	}
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("%w: year out of range: %d", budgetbuddy.ErrInvalidInput, p.Year)
	}
	return nil
}

// Start returns the first day of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first day of the following month.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// expectOne maps a write that touched no row to ErrNotFound.
func expectOne(affected int64, err error) error {
	if err != nil {
		return err
	}
	if affected == 0 {
		return budgetbuddy.ErrNotFound
	}
	return nil
}

// ownsCategory rejects category ids that are not the user's.
func ownsCategory(ctx context.Context, q gateway.Querier, userID int, categoryID *int) error {
	if categoryID == nil {
		return nil
	}
	type row struct {
		ID int `db:"id"`
	}
	_, err := gateway.CollectOne[row](ctx, q,
		`SELECT id FROM categories WHERE id = $1 AND user_id = $2`, *categoryID, userID)
	if errors.Is(err, budgetbuddy.ErrNotFound) {
		return budgetbuddy.NewDBError(budgetbuddy.KindInvalidReference, "",
			fmt.Errorf("category %d does not belong to user %d", *categoryID, userID))
	}
	return err
}
