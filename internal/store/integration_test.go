package store_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/budgetbuddy/internal/store"
	testhelpers "github.com/vvka-141/budgetbuddy/internal/testing"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testhelpers.NewTestGateway(t))
}

func newUser(t *testing.T, s *store.Store, email string) *store.User {
	t.Helper()
	u, err := s.Users.Create(context.Background(), "Test User", email, "hash")
	require.NoError(t, err)
	return u
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestUsers_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := newUser(t, s, "ann@example.com")
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err := s.Users.Create(ctx, "Other", "ann@example.com", "hash")
	require.Error(t, err)
	assert.ErrorIs(t, err, budgetbuddy.ErrDuplicateRecord)
	assert.Equal(t, http.StatusConflict, budgetbuddy.StatusForError(err))

	byEmail, err := s.Users.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.Password)

	updated, err := s.Users.UpdateProfile(ctx, u.ID, "Ann", "ann@example.org")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.org", updated.Email)

	require.NoError(t, s.Users.UpdatePassword(ctx, u.ID, "new-hash"))
	got, err := s.Users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.Password)

	require.NoError(t, s.Users.Delete(ctx, u.ID))
	_, err = s.Users.Get(ctx, u.ID)
	assert.ErrorIs(t, err, budgetbuddy.ErrNotFound)
	assert.ErrorIs(t, s.Users.Delete(ctx, u.ID), budgetbuddy.ErrNotFound)
}

func TestCategories_DefaultsAndScoping(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	alice := newUser(t, s, "alice@example.com")
	bob := newUser(t, s, "bob@example.com")

	defaults, err := s.Categories.CreateDefaults(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, defaults, len(store.DefaultCategories()))
	for _, c := range defaults {
		assert.True(t, c.IsDefault)
		assert.Equal(t, alice.ID, c.UserID)
	}

	custom, err := s.Categories.Create(ctx, alice.ID, store.CategoryInput{Name: "Pets", Icon: "pets", Color: "#795548"})
	require.NoError(t, err)
	assert.False(t, custom.IsDefault)

	list, err := s.Categories.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, len(defaults)+1)

	bobs, err := s.Categories.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobs, "categories must not leak across users")

	_, err = s.Categories.Get(ctx, custom.ID, bob.ID)
	assert.ErrorIs(t, err, budgetbuddy.ErrNotFound)

	_, err = s.Categories.Update(ctx, defaults[0].ID, alice.ID, store.CategoryInput{Name: "x", Color: "#000000"})
	assert.ErrorIs(t, err, budgetbuddy.ErrDefaultCategory)
	assert.ErrorIs(t, s.Categories.Delete(ctx, defaults[0].ID, alice.ID), budgetbuddy.ErrDefaultCategory)

	renamed, err := s.Categories.Update(ctx, custom.ID, alice.ID, store.CategoryInput{Name: "Pet care", Icon: "pets", Color: "#795548"})
	require.NoError(t, err)
	assert.Equal(t, "Pet care", renamed.Name)

	_, err = s.Expenses.Create(ctx, alice.ID, store.ExpenseInput{
		CategoryID: &custom.ID, Amount: dec("12.50"), Description: "food", Date: day(2025, 3, 2),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Categories.Delete(ctx, custom.ID, alice.ID), budgetbuddy.ErrCategoryInUse)

	spare, err := s.Categories.Create(ctx, alice.ID, store.CategoryInput{Name: "Spare", Color: "#111111"})
	require.NoError(t, err)
	require.NoError(t, s.Categories.Delete(ctx, spare.ID, alice.ID))

	totals, err := s.Categories.WithTotals(ctx, alice.ID, &store.Period{Month: 3, Year: 2025})
	require.NoError(t, err)
	require.NotEmpty(t, totals)
	assert.Equal(t, custom.ID, totals[0].ID)
	assert.True(t, dec("12.50").Equal(totals[0].TotalAmount))
	assert.Equal(t, 1, totals[0].TransactionCount)

	empty, err := s.Categories.WithTotals(ctx, alice.ID, &store.Period{Month: 4, Year: 2025})
	require.NoError(t, err)
	for _, c := range empty {
		assert.True(t, c.TotalAmount.IsZero())
	}
}

func TestExpenses_CRUDAndSummary(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := newUser(t, s, "exp@example.com")
	other := newUser(t, s, "intruder@example.com")
	cats, err := s.Categories.CreateDefaults(ctx, u.ID)
	require.NoError(t, err)
	food := cats[0]

	e, err := s.Expenses.Create(ctx, u.ID, store.ExpenseInput{
		CategoryID: &food.ID, Amount: dec("20.00"), Description: "lunch", Date: day(2025, 1, 10),
	})
	require.NoError(t, err)
	require.NotNil(t, e.CategoryName)
	assert.Equal(t, food.Name, *e.CategoryName)

	_, err = s.Expenses.Create(ctx, u.ID, store.ExpenseInput{
		CategoryID: &food.ID, Amount: dec("5.25"), Description: "coffee", Date: day(2025, 2, 1),
	})
	require.NoError(t, err)

	uncategorized, err := s.Expenses.Create(ctx, u.ID, store.ExpenseInput{Amount: dec("1"), Description: "misc", Date: day(2025, 1, 11)})
	require.NoError(t, err)
	assert.Nil(t, uncategorized.CategoryID)
	assert.Nil(t, uncategorized.CategoryName)

	_, err = s.Expenses.Create(ctx, other.ID, store.ExpenseInput{
		CategoryID: &food.ID, Amount: dec("1"), Description: "steal", Date: day(2025, 1, 1),
	})
	assert.ErrorIs(t, err, budgetbuddy.ErrInvalidReference)

	list, err := s.Expenses.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, "coffee", list[0].Description)

	jan, err := s.Expenses.ByMonth(ctx, u.ID, store.Period{Month: 1, Year: 2025})
	require.NoError(t, err)
	assert.Len(t, jan, 2)

	summary, err := s.Expenses.Summary(ctx, u.ID, nil)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.True(t, dec("25.25").Equal(summary[0].TotalAmount))
	assert.Equal(t, 2, summary[0].TransactionCount)

	janSummary, err := s.Expenses.Summary(ctx, u.ID, &store.Period{Month: 1, Year: 2025})
	require.NoError(t, err)
	require.Len(t, janSummary, 1)
	assert.True(t, dec("20").Equal(janSummary[0].TotalAmount))

	updated, err := s.Expenses.Update(ctx, e.ID, u.ID, store.ExpenseInput{Amount: dec("30"), Description: "dinner", Date: day(2025, 1, 10)})
	require.NoError(t, err)
	assert.Equal(t, "dinner", updated.Description)
	assert.Nil(t, updated.CategoryID)

	_, err = s.Expenses.Update(ctx, e.ID, other.ID, store.ExpenseInput{Amount: dec("1"), Description: "x", Date: day(2025, 1, 1)})
	assert.ErrorIs(t, err, budgetbuddy.ErrNotFound)

	assert.ErrorIs(t, s.Expenses.Delete(ctx, e.ID, other.ID), budgetbuddy.ErrNotFound)
	require.NoError(t, s.Expenses.Delete(ctx, e.ID, u.ID))
	_, err = s.Expenses.Get(ctx, e.ID, u.ID)
	assert.ErrorIs(t, err, budgetbuddy.ErrNotFound)
}

func TestBudgets_DuplicateAndVsActual(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := newUser(t, s, "budget@example.com")
	cats, err := s.Categories.CreateDefaults(ctx, u.ID)
	require.NoError(t, err)
	food, travel := cats[0], cats[7]
	march := store.Period{Month: 3, Year: 2025}

	b, err := s.Budgets.Create(ctx, u.ID, store.BudgetInput{CategoryID: food.ID, Amount: dec("100"), Period: march})
	require.NoError(t, err)
	assert.Equal(t, 3, b.Month)

	_, err = s.Budgets.Create(ctx, u.ID, store.BudgetInput{CategoryID: food.ID, Amount: dec("50"), Period: march})
	assert.ErrorIs(t, err, budgetbuddy.ErrDuplicateRecord)

	_, err = s.Budgets.Create(ctx, u.ID, store.BudgetInput{CategoryID: travel.ID, Amount: dec("200"), Period: march})
	require.NoError(t, err)

	_, err = s.Expenses.Create(ctx, u.ID, store.ExpenseInput{CategoryID: &food.ID, Amount: dec("120"), Description: "groceries", Date: day(2025, 3, 5)})
	require.NoError(t, err)
	_, err = s.Expenses.Create(ctx, u.ID, store.ExpenseInput{CategoryID: &food.ID, Amount: dec("999"), Description: "april", Date: day(2025, 4, 1)})
	require.NoError(t, err)

	vs, err := s.Budgets.VsActual(ctx, u.ID, march)
	require.NoError(t, err)
	require.Len(t, vs, 2)
	byCategory := map[int]store.BudgetVsActual{}
	for _, row := range vs {
		byCategory[row.CategoryID] = row
	}
	assert.True(t, byCategory[food.ID].IsOverBudget)
	assert.True(t, dec("120").Equal(byCategory[food.ID].ActualAmount))
	assert.True(t, dec("120").Equal(byCategory[food.ID].PercentageUsed))
	assert.False(t, byCategory[travel.ID].IsOverBudget)
	assert.True(t, byCategory[travel.ID].ActualAmount.IsZero())

	summary, err := s.Budgets.MonthlySummary(ctx, u.ID, march)
	require.NoError(t, err)
	assert.Len(t, summary, 2)

	inMarch, err := s.Budgets.ByPeriod(ctx, u.ID, march)
	require.NoError(t, err)
	assert.Len(t, inMarch, 2)

	moved, err := s.Budgets.Update(ctx, b.ID, u.ID, store.BudgetInput{CategoryID: food.ID, Amount: dec("150"), Period: store.Period{Month: 4, Year: 2025}})
	require.NoError(t, err)
	assert.True(t, dec("150").Equal(moved.Amount))

	all, err := s.Budgets.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.Budgets.Delete(ctx, b.ID, u.ID))
	_, err = s.Budgets.Get(ctx, b.ID, u.ID)
	assert.ErrorIs(t, err, budgetbuddy.ErrNotFound)
}

func TestGoals_Progress(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := newUser(t, s, "goal@example.com")

	g, err := s.Goals.Create(ctx, u.ID, store.GoalInput{
		Name: "Laptop", TargetAmount: dec("1000"), TargetDate: day(2026, 1, 1),
	})
	require.NoError(t, err)
	assert.False(t, g.IsCompleted)
	assert.True(t, g.CurrentAmount.IsZero())

	g, err = s.Goals.AddProgress(ctx, g.ID, u.ID, dec("400"))
	require.NoError(t, err)
	assert.True(t, dec("400").Equal(g.CurrentAmount))
	assert.False(t, g.IsCompleted)

	g, err = s.Goals.AddProgress(ctx, g.ID, u.ID, dec("600"))
	require.NoError(t, err)
	assert.True(t, g.IsCompleted)

	g, err = s.Goals.SetProgress(ctx, g.ID, u.ID, dec("10"))
	require.NoError(t, err)
	assert.False(t, g.IsCompleted)

	done, err := s.Goals.Create(ctx, u.ID, store.GoalInput{
		Name: "Bike", TargetAmount: dec("100"), CurrentAmount: dec("100"), TargetDate: day(2025, 6, 1),
	})
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)

	active, err := s.Goals.Active(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, g.ID, active[0].ID)

	completed, err := s.Goals.Completed(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done.ID, completed[0].ID)

	summary, err := s.Goals.ProgressSummary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalGoals)
	assert.Equal(t, 1, summary.CompletedGoals)
	assert.True(t, dec("1100").Equal(summary.TotalTargetAmount))
	assert.True(t, dec("110").Equal(summary.TotalCurrentAmount))
	assert.True(t, dec("10").Equal(summary.OverallProgress))

	_, err = s.Goals.AddProgress(ctx, g.ID, u.ID+1000, dec("1"))
	assert.ErrorIs(t, err, budgetbuddy.ErrNotFound)

	empty := newUser(t, s, "nogoals@example.com")
	none, err := s.Goals.ProgressSummary(ctx, empty.ID)
	require.NoError(t, err)
	assert.Zero(t, none.TotalGoals)
	assert.True(t, none.OverallProgress.IsZero())

	require.NoError(t, s.Goals.Delete(ctx, done.ID, u.ID))
	all, err := s.Goals.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIncome_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := newUser(t, s, "income@example.com")
	note := "march salary"

	i, err := s.Income.Create(ctx, u.ID, store.IncomeInput{
		Source: "Salary", Amount: dec("3000"), Frequency: "monthly", Description: &note, Date: day(2025, 3, 25),
	})
	require.NoError(t, err)
	require.NotNil(t, i.Description)
	assert.Equal(t, note, *i.Description)

	_, err = s.Income.Create(ctx, u.ID, store.IncomeInput{Source: "Gift", Amount: dec("50"), Frequency: "once", Date: day(2025, 4, 2)})
	require.NoError(t, err)

	march, err := s.Income.ByMonth(ctx, u.ID, store.Period{Month: 3, Year: 2025})
	require.NoError(t, err)
	require.Len(t, march, 1)

	updated, err := s.Income.Update(ctx, i.ID, u.ID, store.IncomeInput{Source: "Salary", Amount: dec("3100"), Frequency: "monthly", Date: day(2025, 3, 25)})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	all, err := s.Income.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.Income.Delete(ctx, i.ID, u.ID))
	_, err = s.Income.Get(ctx, i.ID, u.ID)
	assert.ErrorIs(t, err, budgetbuddy.ErrNotFound)
}

func TestBills_PaidAndSchedule(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := newUser(t, s, "bills@example.com")

	rent, err := s.Bills.Create(ctx, u.ID, store.BillInput{Name: "Rent", Amount: dec("900"), DueDay: 1, IsRecurring: true})
	require.NoError(t, err)
	phone, err := s.Bills.Create(ctx, u.ID, store.BillInput{Name: "Phone", Amount: dec("30"), DueDay: 31, IsRecurring: true})
	require.NoError(t, err)
	gym, err := s.Bills.Create(ctx, u.ID, store.BillInput{Name: "Gym", Amount: dec("40"), DueDay: 15})
	require.NoError(t, err)

	today := day(2025, 2, 10)
	upcoming, err := s.Bills.Upcoming(ctx, u.ID, today)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, gym.ID, upcoming[0].ID)

	overdue, err := s.Bills.Overdue(ctx, u.ID, today)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, rent.ID, overdue[0].ID)

	paid, err := s.Bills.SetPaid(ctx, rent.ID, u.ID, true)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	toggled, err := s.Bills.TogglePaid(ctx, phone.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsPaid)
	toggled, err = s.Bills.TogglePaid(ctx, phone.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsPaid)

	_, err = s.Bills.SetPaid(ctx, gym.ID, u.ID, true)
	require.NoError(t, err)

	overdue, err = s.Bills.Overdue(ctx, u.ID, today)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	feb, err := s.Bills.ByMonth(ctx, u.ID, store.Period{Month: 2, Year: 2025})
	require.NoError(t, err)
	dueOn := map[int]time.Time{}
	for _, b := range feb {
		require.NotNil(t, b.DueOn)
		dueOn[b.ID] = *b.DueOn
	}
	assert.Equal(t, day(2025, 2, 1), dueOn[rent.ID].UTC())
	assert.Equal(t, day(2025, 2, 28), dueOn[phone.ID].UTC())

	reset, err := s.Bills.ResetRecurring(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reset)

	gymAfter, err := s.Bills.Get(ctx, gym.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, gymAfter.IsPaid, "non-recurring bills keep their paid flag")

	_, err = s.Bills.Update(ctx, gym.ID, u.ID, store.BillInput{Name: "Gym", Amount: dec("45"), DueDay: 16})
	require.NoError(t, err)

	require.NoError(t, s.Bills.Delete(ctx, gym.ID, u.ID))
	all, err := s.Bills.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
