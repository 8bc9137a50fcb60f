package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/vvka-141/budgetbuddy/internal/store"
)

const dateLayout = "2006-01-02"

// maxAmount is the smallest value a NUMERIC(12,2) column cannot hold.
var maxAmount = decimal.New(1, 10)

// pathInt reads a positive path parameter. Ids are int4 columns, so values
// beyond 32 bits are rejected here rather than failing to encode.
func pathInt(c *gin.Context, name string) (int, error) {
	raw := c.Param(name)
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n <= 0 {
		return 0, invalidParam(name, raw)
	}
	return int(n), nil
}

// checkAmount requires 0 < d < maxAmount after rounding to cents.
func checkAmount(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return badRequest(field+" must be positive", nil)
	}
	return checkAmountRange(field, d)
}

func checkAmountRange(field string, d decimal.Decimal) error {
	if !d.Round(2).Abs().LessThan(maxAmount) {
		return badRequest(field+" must be less than "+maxAmount.String(), nil)
	}
	return nil
}

func pathID(c *gin.Context) (int, error) {
	return pathInt(c, "id")
}

// periodQuery reads ?month=&year=. Without either it returns fallback.
// Only one of the two is rejected.
func periodQuery(c *gin.Context, fallback *store.Period) (*store.Period, error) {
	month, hasMonth := c.GetQuery("month")
	year, hasYear := c.GetQuery("year")
	if !hasMonth && !hasYear {
		return fallback, nil
	}
	if !hasMonth || !hasYear {
		return nil, badRequest("month and year must be given together", nil)
	}

	m, err := strconv.Atoi(month)
	if err != nil {
		return nil, invalidParam("month", month)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return nil, invalidParam("year", year)
	}
	p := store.Period{Month: m, Year: y}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and returns fallback for "".
func parseDate(field, s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, invalidParam(field, s)
	}
	return t, nil
}

// today is the current date at UTC midnight.
func today(now func() time.Time) time.Time {
	t := now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
