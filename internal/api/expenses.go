package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/vvka-141/budgetbuddy/internal/store"
)

type ExpenseHandler struct {
	expenses *store.Expenses
	errs     *errorWriter
	now      func() time.Time
}

type expenseRequest struct {
	CategoryID  *int             `json:"category_id"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Date        string           `json:"date"`
}

func (r expenseRequest) input(now func() time.Time) (store.ExpenseInput, error) {
	if err := checkAmount("amount", *r.Amount); err != nil {
		return store.ExpenseInput{}, err
	}
	date, err := parseDate("date", r.Date, today(now))
	if err != nil {
		return store.ExpenseInput{}, err
	}
	return store.ExpenseInput{CategoryID: r.CategoryID, Amount: *r.Amount, Description: r.Description, Date: date}, nil
}

// List returns all expenses, or those of one month with ?month=&year=.
func (h *ExpenseHandler) List(c *gin.Context) {
	period, err := periodQuery(c, nil)
	if err != nil {
		h.errs.write(c, err)
		return
	}

	var list []store.Expense
	if period != nil {
		list, err = h.expenses.ByMonth(c.Request.Context(), currentUser(c), *period)
	} else {
		list, err = h.expenses.List(c.Request.Context(), currentUser(c))
	}
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Summary totals spending per category, for ?month=&year= when given.
func (h *ExpenseHandler) Summary(c *gin.Context) {
	period, err := periodQuery(c, nil)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	summary, err := h.expenses.Summary(c.Request.Context(), currentUser(c), period)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ExpenseHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	expense, err := h.expenses.Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	expense, err := h.expenses.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (h *ExpenseHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	in, ok := h.bind(c)
	if !ok {
		return
	}
	expense, err := h.expenses.Update(c.Request.Context(), id, currentUser(c), in)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	if err := h.expenses.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Expense removed"})
}

func (h *ExpenseHandler) bind(c *gin.Context) (store.ExpenseInput, bool) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return store.ExpenseInput{}, false
	}
	in, err := req.input(h.now)
	if err != nil {
		h.errs.write(c, err)
		return store.ExpenseInput{}, false
	}
	return in, true
}
