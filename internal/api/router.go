// Package api serves the budgetbuddy REST API over gin.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vvka-141/budgetbuddy/internal/auth"
	"github.com/vvka-141/budgetbuddy/internal/store"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// HealthChecker reports database health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) budgetbuddy.HealthReport
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Health HealthChecker
	Store  *store.Store
	Tokens *auth.Issuer
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		panic("api: logger must not be nil")
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(d.Logger))
	router.Use(recoveryMiddleware(d.Logger))
	router.Use(corsMiddleware())

	errs := &errorWriter{logger: d.Logger}
	authMw := authRequired(d.Tokens, errs)

	health := &HealthHandler{checker: d.Health}
	users := &AuthHandler{store: d.Store, tokens: d.Tokens, errs: errs, logger: d.Logger}
	categories := &CategoryHandler{categories: d.Store.Categories, errs: errs}
	expenses := &ExpenseHandler{expenses: d.Store.Expenses, errs: errs, now: d.Now}
	budgets := &BudgetHandler{budgets: d.Store.Budgets, errs: errs, now: d.Now}
	goals := &GoalHandler{goals: d.Store.Goals, errs: errs}
	income := &IncomeHandler{income: d.Store.Income, errs: errs, now: d.Now}
	bills := &BillHandler{bills: d.Store.Bills, errs: errs, now: d.Now}

	api := router.Group("/api")
	api.GET("/health", health.Health)

	api.POST("/auth/register", users.Register)
	api.POST("/auth/login", users.Login)

	protected := api.Group("")
	protected.Use(authMw)
	{
		protected.GET("/auth", users.Me)
		protected.PUT("/auth", users.UpdateProfile)
		protected.PUT("/auth/password", users.ChangePassword)
		protected.DELETE("/auth", users.DeleteAccount)

		c := protected.Group("/categories")
		c.GET("", categories.List)
		c.GET("/with-totals", categories.WithTotals)
		c.GET("/:id", categories.Get)
		c.POST("", categories.Create)
		c.PUT("/:id", categories.Update)
		c.DELETE("/:id", categories.Delete)

		e := protected.Group("/expenses")
		e.GET("", expenses.List)
		e.GET("/summary", expenses.Summary)
		e.GET("/:id", expenses.Get)
		e.POST("", expenses.Create)
		e.PUT("/:id", expenses.Update)
		e.DELETE("/:id", expenses.Delete)

		b := protected.Group("/budgets")
		b.GET("", budgets.List)
		b.GET("/vs-actual", budgets.VsActual)
		b.GET("/summary", budgets.Summary)
		b.GET("/:id", budgets.Get)
		b.POST("", budgets.Create)
		b.PUT("/:id", budgets.Update)
		b.DELETE("/:id", budgets.Delete)

		g := protected.Group("/goals")
		g.GET("", goals.List)
		g.GET("/progress-summary", goals.ProgressSummary)
		g.GET("/:id", goals.Get)
		g.POST("", goals.Create)
		g.PUT("/:id", goals.Update)
		g.DELETE("/:id", goals.Delete)
		g.PUT("/:id/progress", goals.Progress)
		g.PATCH("/:id/progress", goals.Progress)

		i := protected.Group("/income")
		i.GET("", income.List)
		i.GET("/:id", income.Get)
		i.POST("", income.Create)
		i.PUT("/:id", income.Update)
		i.DELETE("/:id", income.Delete)

		bl := protected.Group("/bills")
		bl.GET("", bills.List)
		bl.GET("/upcoming", bills.Upcoming)
		bl.GET("/overdue", bills.Overdue)
		bl.GET("/month/:year/:month", bills.ByMonth)
		bl.POST("/reset-recurring", bills.ResetRecurring)
		bl.GET("/:id", bills.Get)
		bl.POST("", bills.Create)
		bl.PUT("/:id", bills.Update)
		bl.DELETE("/:id", bills.Delete)
		bl.PUT("/:id/toggle-paid", bills.TogglePaid)
		bl.PUT("/:id/paid", bills.SetPaid)
	}

	router.NoRoute(notFound)
	return router
}
