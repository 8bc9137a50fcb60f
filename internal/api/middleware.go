package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vvka-141/budgetbuddy/internal/auth"
	"github.com/vvka-141/budgetbuddy/internal/logging"
)

const (
	// TokenHeader carries the API token; Authorization: Bearer is also accepted.
	TokenHeader     = "x-auth-token"
	RequestIDHeader = "X-Request-ID"

	ctxRequestID = "request_id"
	ctxUserID    = "user_id"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(ctxRequestID, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

func accessLogMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("request_id", c.GetString(ctxRequestID)),
		}
		if id, ok := c.Get(ctxUserID); ok {
			attrs = append(attrs, slog.Any("user_id", id))
		}
		logger.LogAttrs(c.Request.Context(), level, "request", attrs...)
	}
}

func recoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("panic while serving request",
			"path", c.Request.URL.Path,
			"request_id", c.GetString(ctxRequestID),
			"panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Status: "error", Msg: "Server error"})
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+TokenHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authRequired verifies the token and stores the user id in the context.
func authRequired(tokens *auth.Issuer, errs *errorWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(TokenHeader)
		if token == "" {
			if h := c.GetHeader("Authorization"); h != "" {
				scheme, value, ok := strings.Cut(h, " ")
				if ok && strings.EqualFold(scheme, "bearer") {
					token = strings.TrimSpace(value)
				}
			}
		}
		if token == "" {
			errs.write(c, &httpError{status: http.StatusUnauthorized, msg: "No token, authorization denied"})
			return
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			errs.write(c, &httpError{status: http.StatusUnauthorized, msg: "Token is not valid", cause: err})
			return
		}

		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) int {
	return c.MustGet(ctxUserID).(int)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"status": "error",
		"msg":    "Resource not found",
		"path":   c.Request.URL.Path,
	})
}

// logCause logs the cause of err when one is attached.
func logCause(logger *slog.Logger, c *gin.Context, msg string, err error) {
	var he *httpError
	if errors.As(err, &he) && he.cause != nil {
		err = he.cause
	}
	logger.Error(msg,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString(ctxRequestID),
		logging.Err(err))
}
