package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

type HealthHandler struct {
	checker HealthChecker
}

// Health reports database health: 200 when the probe succeeded, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	report := h.checker.CheckHealth(c.Request.Context())
	status := http.StatusOK
	if report.Status != budgetbuddy.HealthOK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
