package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryRef is the display data of the category a record is filed under.
type CategoryRef struct {
	CategoryName  *string `db:"category_name" json:"category_name"`
	CategoryIcon  *string `db:"category_icon" json:"category_icon"`
	CategoryColor *string `db:"category_color" json:"category_color"`
}

type User struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Category struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Icon      string    `db:"icon" json:"icon"`
	Color     string    `db:"color" json:"color"`
	IsDefault bool      `db:"is_default" json:"is_default"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CategoryTotal is a category with the sum of its expenses.
type CategoryTotal struct {
	ID               int             `db:"id" json:"id"`
	Name             string          `db:"name" json:"name"`
	Icon             string          `db:"icon" json:"icon"`
	Color            string          `db:"color" json:"color"`
	IsDefault        bool            `db:"is_default" json:"is_default"`
	TotalAmount      decimal.Decimal `db:"total_amount" json:"total_amount"`
	TransactionCount int             `db:"transaction_count" json:"transaction_count"`
}

type Expense struct {
	ID          int             `db:"id" json:"id"`
	UserID      int             `db:"user_id" json:"user_id"`
	CategoryID  *int            `db:"category_id" json:"category_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description"`
	Date        time.Time       `db:"date" json:"date"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	CategoryRef
}

// ExpenseSummary is the spending in one category.
type ExpenseSummary struct {
	CategoryID       int             `db:"category_id" json:"category_id"`
	CategoryName     string          `db:"category_name" json:"category_name"`
	CategoryIcon     string          `db:"category_icon" json:"category_icon"`
	CategoryColor    string          `db:"category_color" json:"category_color"`
	TotalAmount      decimal.Decimal `db:"total_amount" json:"total_amount"`
	TransactionCount int             `db:"transaction_count" json:"transaction_count"`
}

type Budget struct {
	ID         int             `db:"id" json:"id"`
	UserID     int             `db:"user_id" json:"user_id"`
	CategoryID int             `db:"category_id" json:"category_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Month      int             `db:"month" json:"month"`
	Year       int             `db:"year" json:"year"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	CategoryRef
}

// BudgetVsActual compares a budget with the spending in its category.
type BudgetVsActual struct {
	CategoryID     int             `db:"category_id" json:"category_id"`
	BudgetAmount   decimal.Decimal `db:"budget_amount" json:"budget_amount"`
	ActualAmount   decimal.Decimal `db:"actual_amount" json:"actual_amount"`
	IsOverBudget   bool            `db:"is_over_budget" json:"is_over_budget"`
	PercentageUsed decimal.Decimal `db:"percentage_used" json:"percentage_used"`
	CategoryRef
}

// BudgetSummary is a budget with what has been spent against it.
type BudgetSummary struct {
	ID           int             `db:"id" json:"id"`
	CategoryID   int             `db:"category_id" json:"category_id"`
	BudgetAmount decimal.Decimal `db:"budget_amount" json:"budget_amount"`
	SpentAmount  decimal.Decimal `db:"spent_amount" json:"spent_amount"`
	CategoryRef
}

type Goal struct {
	ID            int             `db:"id" json:"id"`
	UserID        int             `db:"user_id" json:"user_id"`
	CategoryID    *int            `db:"category_id" json:"category_id"`
	Name          string          `db:"name" json:"name"`
	TargetAmount  decimal.Decimal `db:"target_amount" json:"target_amount"`
	CurrentAmount decimal.Decimal `db:"current_amount" json:"current_amount"`
	TargetDate    time.Time       `db:"target_date" json:"target_date"`
	IsCompleted   bool            `db:"is_completed" json:"is_completed"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	CategoryRef
}

// GoalSummary aggregates progress over all goals of a user.
type GoalSummary struct {
	TotalGoals         int             `db:"total_goals" json:"total_goals"`
	CompletedGoals     int             `db:"completed_goals" json:"completed_goals"`
	TotalTargetAmount  decimal.Decimal `db:"total_target_amount" json:"total_target_amount"`
	TotalCurrentAmount decimal.Decimal `db:"total_current_amount" json:"total_current_amount"`
	OverallProgress    decimal.Decimal `db:"overall_progress" json:"overall_progress"`
}

type Income struct {
	ID          int             `db:"id" json:"id"`
	UserID      int             `db:"user_id" json:"user_id"`
	CategoryID  *int            `db:"category_id" json:"category_id"`
	Source      string          `db:"source" json:"source"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Frequency   string          `db:"frequency" json:"frequency"`
	Description *string         `db:"description" json:"description"`
	Date        time.Time       `db:"date" json:"date"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	CategoryRef
}

// Bill is a payment due on a day of the month.
type Bill struct {
	ID          int             `db:"id" json:"id"`
	UserID      int             `db:"user_id" json:"user_id"`
	CategoryID  *int            `db:"category_id" json:"category_id"`
	Name        string          `db:"name" json:"name"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	DueDay      int             `db:"due_day" json:"due_date"`
	IsRecurring bool            `db:"is_recurring" json:"is_recurring"`
	IsPaid      bool            `db:"is_paid" json:"is_paid"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	// DueOn is the concrete due date; only set by Bills.ByMonth.
	DueOn *time.Time `db:"due_on" json:"due_on,omitempty"`
	CategoryRef
}
