package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Status  string `json:"status"`
	Msg     string `json:"msg"`
	Details any    `json:"details,omitempty"`
}

// httpError is a response decided by a handler.
type httpError struct {
	status  int
	msg     string
	details any
	cause   error
}

func (e *httpError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *httpError) Unwrap() error { return e.cause }

func badRequest(msg string, details any) *httpError {
	return &httpError{status: http.StatusBadRequest, msg: msg, details: details}
}

// fieldError describes one failed validation rule.
type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// bindError turns a gin binding failure into a 400 response.
func bindError(err error) *httpError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: jsonName(fe), Rule: fe.Tag(), Param: fe.Param()})
		}
		return &httpError{status: http.StatusBadRequest, msg: "Validation failed", details: fields, cause: err}
	}
	return &httpError{status: http.StatusBadRequest, msg: "Invalid request body", cause: err}
}

// jsonName converts the struct field name of a validation error to snake case.
func jsonName(fe validator.FieldError) string {
	var b strings.Builder
	for i, r := range fe.Field() {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// errorWriter renders errors and logs server-side failures.
type errorWriter struct {
	logger *slog.Logger
}

// write aborts the request with the status and client-safe message for err.
func (w *errorWriter) write(c *gin.Context, err error) {
	var he *httpError
	if errors.As(err, &he) {
		if he.status >= http.StatusInternalServerError {
			logCause(w.logger, c, "request failed", err)
		}
		c.AbortWithStatusJSON(he.status, errorBody{Status: "error", Msg: he.msg, Details: he.details})
		return
	}

	status := budgetbuddy.StatusForError(err)
	msg := err.Error()
	if _, isDB := budgetbuddy.KindOf(err); !isDB {
		switch {
		case status >= http.StatusInternalServerError:
			msg = "Server error"
		case errors.Is(err, budgetbuddy.ErrNotFound):
			msg = "Resource not found"
		}
	}

	if status >= http.StatusInternalServerError {
		logCause(w.logger, c, "request failed", err)
	}
	c.AbortWithStatusJSON(status, errorBody{Status: "error", Msg: msg})
}

func invalidParam(name, value string) *httpError {
	return badRequest(fmt.Sprintf("Invalid %s: %q", name, value), nil)
}
