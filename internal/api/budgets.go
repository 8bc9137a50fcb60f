package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/vvka-141/budgetbuddy/internal/store"
)

type BudgetHandler struct {
	budgets *store.Budgets
	errs    *errorWriter
	now     func() time.Time
}

type budgetRequest struct {
	CategoryID int              `json:"category_id" binding:"required"`
	Amount     *decimal.Decimal `json:"amount" binding:"required"`
	Month      int              `json:"month" binding:"required,min=1,max=12"`
	Year       int              `json:"year" binding:"required,min=1900"`
}

// List returns all budgets, or those of one month with ?month=&year=.
func (h *BudgetHandler) List(c *gin.Context) {
	period, err := periodQuery(c, nil)
	if err != nil {
		h.errs.write(c, err)
		return
	}

	var list []store.Budget
	if period != nil {
		list, err = h.budgets.ByPeriod(c.Request.Context(), currentUser(c), *period)
	} else {
		list, err = h.budgets.List(c.Request.Context(), currentUser(c))
	}
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// VsActual compares budgets with spending; the month defaults to the current one.
func (h *BudgetHandler) VsActual(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	rows, err := h.budgets.VsActual(c.Request.Context(), currentUser(c), period)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Summary lists the month's budgets with the amount spent against each.
func (h *BudgetHandler) Summary(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	rows, err := h.budgets.MonthlySummary(c.Request.Context(), currentUser(c), period)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *BudgetHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	budget, err := h.budgets.Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

func (h *BudgetHandler) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	budget, err := h.budgets.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, budget)
}

func (h *BudgetHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	in, ok := h.bind(c)
	if !ok {
		return
	}
	budget, err := h.budgets.Update(c.Request.Context(), id, currentUser(c), in)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

func (h *BudgetHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	if err := h.budgets.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Budget removed"})
}

func (h *BudgetHandler) period(c *gin.Context) (store.Period, bool) {
	current := store.PeriodOf(h.now())
	period, err := periodQuery(c, &current)
	if err != nil {
		h.errs.write(c, err)
		return store.Period{}, false
	}
	return *period, true
}

func (h *BudgetHandler) bind(c *gin.Context) (store.BudgetInput, bool) {
	var req budgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return store.BudgetInput{}, false
	}
	if err := checkAmount("amount", *req.Amount); err != nil {
		h.errs.write(c, err)
		return store.BudgetInput{}, false
	}
	return store.BudgetInput{
		CategoryID: req.CategoryID,
		Amount:     *req.Amount,
		Period:     store.Period{Month: req.Month, Year: req.Year},
	}, true
}
