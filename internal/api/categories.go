package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vvka-141/budgetbuddy/internal/store"
)

type CategoryHandler struct {
	categories *store.Categories
	errs       *errorWriter
}

type categoryRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Icon  string `json:"icon" binding:"max=50"`
	Color string `json:"color" binding:"required,max=20"`
}

func (r categoryRequest) input() store.CategoryInput {
	return store.CategoryInput{Name: r.Name, Icon: r.Icon, Color: r.Color}
}

func (h *CategoryHandler) List(c *gin.Context) {
	list, err := h.categories.List(c.Request.Context(), currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// WithTotals lists categories with expense totals, for ?month=&year= when given.
func (h *CategoryHandler) WithTotals(c *gin.Context) {
	period, err := periodQuery(c, nil)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	list, err := h.categories.WithTotals(c.Request.Context(), currentUser(c), period)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	category, err := h.categories.Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return
	}
	category, err := h.categories.Create(c.Request.Context(), currentUser(c), req.input())
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.write(c, bindError(err))
		return
	}
	category, err := h.categories.Update(c.Request.Context(), id, currentUser(c), req.input())
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Category removed"})
}
