package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/vvka-141/budgetbuddy/internal/store"
)

type IncomeHandler struct {
	income *store.IncomeRepo
	errs   *errorWriter
	now    func() time.Time
}

type incomeRequest struct {
	CategoryID  *int             `json:"category_id"`
	Source      string           `json:"source" binding:"required,max=100"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Frequency   string           `json:"frequency" binding:"required,max=50"`
	Description *string          `json:"description"`
	Date        string           `json:"date"`
}

// List returns all income, or that of one month with ?month=&year=.
func (h *IncomeHandler) List(c *gin.Context) {
	period, err := periodQuery(c, nil)
	if err != nil {
		h.errs.write(c, err)
		return
	}

	var list []store.Income
	if period != nil {
		list, err = h.income.ByMonth(c.Request.Context(), currentUser(c), *period)
	} else {
		list, err = h.income.List(c.Request.Context(), currentUser(c))
	}
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *IncomeHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	income, err := h.income.Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, income)
}

func (h *IncomeHandler) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	income, err := h.income.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, income)
}

func (h *IncomeHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	in, ok := h.bind(c)
	if !ok {
		return
	}
	income, err := h.income.Update(c.Request.Context(), id, currentUser(c), in)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, income)
}

func (h *IncomeHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	if err := h.income.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Income removed"})
}

func (h *IncomeHandler) bind(c *gin.Context) (store.IncomeInput, bool) {
	var req incomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return store.IncomeInput{}, false
	}
	if err := checkAmount("amount", *req.Amount); err != nil {
		h.errs.write(c, err)
		return store.IncomeInput{}, false
	}
	date, err := parseDate("date", req.Date, today(h.now))
	if err != nil {
		h.errs.write(c, err)
		return store.IncomeInput{}, false
	}
	return store.IncomeInput{
		CategoryID:  req.CategoryID,
		Source:      req.Source,
		Amount:      *req.Amount,
		Frequency:   req.Frequency,
		Description: req.Description,
		Date:        date,
	}, true
}
