package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/vvka-141/budgetbuddy/internal/store"
)

type GoalHandler struct {
	goals *store.Goals
	errs  *errorWriter
}

type goalRequest struct {
	CategoryID    *int             `json:"category_id"`
	Name          string           `json:"name" binding:"required,max=100"`
	TargetAmount  *decimal.Decimal `json:"target_amount" binding:"required"`
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	TargetDate    string           `json:"target_date" binding:"required"`
}

// progressRequest sets the saved amount with current_amount or adds to it with amount.
type progressRequest struct {
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	Amount        *decimal.Decimal `json:"amount"`
}

// List returns all goals; ?status=active or ?status=completed filters them.
func (h *GoalHandler) List(c *gin.Context) {
	ctx, user := c.Request.Context(), currentUser(c)

	var (
		list []store.Goal
		err  error
	)
	switch status := c.Query("status"); status {
	case "":
		list, err = h.goals.List(ctx, user)
	case "active":
		list, err = h.goals.Active(ctx, user)
	case "completed":
		list, err = h.goals.Completed(ctx, user)
	default:
		err = invalidParam("status", status)
	}
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *GoalHandler) ProgressSummary(c *gin.Context) {
	summary, err := h.goals.ProgressSummary(c.Request.Context(), currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *GoalHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	goal, err := h.goals.Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *GoalHandler) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	goal, err := h.goals.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (h *GoalHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	in, ok := h.bind(c)
	if !ok {
		return
	}
	goal, err := h.goals.Update(c.Request.Context(), id, currentUser(c), in)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *GoalHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	if err := h.goals.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Goal removed"})
}

// Progress updates the saved amount and completion of a goal.
func (h *GoalHandler) Progress(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return
	}

	var goal *store.Goal
	switch {
	case req.CurrentAmount != nil:
		if req.CurrentAmount.IsNegative() {
			h.errs.write(c, badRequest("current_amount must not be negative", nil))
			return
		}
		if err := checkAmountRange("current_amount", *req.CurrentAmount); err != nil {
			h.errs.write(c, err)
			return
		}
		goal, err = h.goals.SetProgress(c.Request.Context(), id, currentUser(c), *req.CurrentAmount)
	case req.Amount != nil:
		if err := checkAmountRange("amount", *req.Amount); err != nil {
			h.errs.write(c, err)
			return
		}
		goal, err = h.goals.AddProgress(c.Request.Context(), id, currentUser(c), *req.Amount)
	default:
		h.errs.write(c, badRequest("current_amount or amount is required", nil))
		return
	}
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *GoalHandler) bind(c *gin.Context) (store.GoalInput, bool) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return store.GoalInput{}, false
	}
	if err := checkAmount("target_amount", *req.TargetAmount); err != nil {
		h.errs.write(c, err)
		return store.GoalInput{}, false
	}
	targetDate, err := parseDate("target_date", req.TargetDate, time.Time{})
	if err != nil {
		h.errs.write(c, err)
		return store.GoalInput{}, false
	}

	in := store.GoalInput{
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		TargetAmount: *req.TargetAmount,
		TargetDate:   targetDate,
	}
	if req.CurrentAmount != nil {
		if err := checkAmountRange("current_amount", *req.CurrentAmount); err != nil {
			h.errs.write(c, err)
			return store.GoalInput{}, false
		}
		in.CurrentAmount = *req.CurrentAmount
	}
	return in, true
}
