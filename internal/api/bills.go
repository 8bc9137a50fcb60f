package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/vvka-141/budgetbuddy/internal/store"
)

type BillHandler struct {
	bills *store.Bills
	errs  *errorWriter
	now   func() time.Time
}

type billRequest struct {
	CategoryID  *int             `json:"category_id"`
	Name        string           `json:"name" binding:"required,max=100"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	DueDate     int              `json:"due_date" binding:"required,min=1,max=31"`
	IsRecurring *bool            `json:"is_recurring"`
	IsPaid      bool             `json:"is_paid"`
}

type paidRequest struct {
	IsPaid *bool `json:"is_paid" binding:"required"`
}

func (h *BillHandler) List(c *gin.Context) {
	list, err := h.bills.List(c.Request.Context(), currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Upcoming lists unpaid bills still due this month.
func (h *BillHandler) Upcoming(c *gin.Context) {
	list, err := h.bills.Upcoming(c.Request.Context(), currentUser(c), h.now())
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Overdue lists unpaid bills whose due day this month has passed.
func (h *BillHandler) Overdue(c *gin.Context) {
	list, err := h.bills.Overdue(c.Request.Context(), currentUser(c), h.now())
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ByMonth lists the bills of /month/:year/:month with their due dates.
func (h *BillHandler) ByMonth(c *gin.Context) {
	year, err := pathInt(c, "year")
	if err != nil {
		h.errs.write(c, err)
		return
	}
	month, err := pathInt(c, "month")
	if err != nil {
		h.errs.write(c, err)
		return
	}
	list, err := h.bills.ByMonth(c.Request.Context(), currentUser(c), store.Period{Month: month, Year: year})
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ResetRecurring marks every recurring bill unpaid for a new month.
func (h *BillHandler) ResetRecurring(c *gin.Context) {
	n, err := h.bills.ResetRecurring(c.Request.Context(), currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Recurring bills reset", "count": n})
}

func (h *BillHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	bill, err := h.bills.Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *BillHandler) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	bill, err := h.bills.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

func (h *BillHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	in, ok := h.bind(c)
	if !ok {
		return
	}
	bill, err := h.bills.Update(c.Request.Context(), id, currentUser(c), in)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *BillHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	if err := h.bills.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Bill removed"})
}

func (h *BillHandler) TogglePaid(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	bill, err := h.bills.TogglePaid(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *BillHandler) SetPaid(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	var req paidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return
	}
	bill, err := h.bills.SetPaid(c.Request.Context(), id, currentUser(c), *req.IsPaid)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *BillHandler) bind(c *gin.Context) (store.BillInput, bool) {
	var req billRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return store.BillInput{}, false
	}
	if err := checkAmount("amount", *req.Amount); err != nil {
		h.errs.write(c, err)
		return store.BillInput{}, false
	}
	recurring := true
	if req.IsRecurring != nil {
		recurring = *req.IsRecurring
	}
	return store.BillInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Amount:      *req.Amount,
		DueDay:      req.DueDate,
		IsRecurring: recurring,
		IsPaid:      req.IsPaid,
	}, true
}
