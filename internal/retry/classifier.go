package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// PostgreSQL error codes the gateway reacts to.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	// Class 08 - Connection Exception
	pgCodeConnectionDoesNotExist = "08003"
	pgCodeConnectionFailure      = "08006"

	// Class 23 - Integrity Constraint Violation
	pgCodeNotNullViolation    = "23502"
	pgCodeForeignKeyViolation = "23503"
	pgCodeUniqueViolation     = "23505"

	// Class 28 - Invalid Authorization Specification
	pgCodeInvalidPassword = "28P01"

	// Class 42 - Syntax Error or Access Rule Violation
	pgCodeUndefinedTable = "42P01"

	// Class 57 - Operator Intervention
	pgCodeAdminShutdown = "57P01"
)

var (
	// ErrAcquireTimeout is returned when no pooled connection frees up in time.
	ErrAcquireTimeout = errors.New("timed out waiting for a pooled connection")

	// ErrPoolUnavailable is returned while the gateway has no pool to query.
	ErrPoolUnavailable = errors.New("no connection pool available")
)

// QueryClassifier implements budgetbuddy.ErrorClassifier for statements run by the gateway.
//
// Only connectivity failures are transient: connection refused, 08003
// connection-does-not-exist, 08006 connection-failure (including transport
// failures on an established connection, which pgx reports without a
// SQLSTATE) and 57P01 admin-shutdown. Constraint, schema and credential
// errors are never retried.
type QueryClassifier struct{}

// NewQueryClassifier creates a new query classifier.
func NewQueryClassifier() *QueryClassifier {
	return &QueryClassifier{}
}

// IsTransient reports whether the failed statement should be retried.
func (c *QueryClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPoolUnavailable) {
		return true
	}
	return IsConnectionLost(err)
}

// Classify maps err to the gateway error taxonomy and returns the SQLSTATE, if any.
func (c *QueryClassifier) Classify(err error) (budgetbuddy.ErrorKind, string) {
	code := SQLState(err)

	switch code {
	case pgCodeUniqueViolation:
		return budgetbuddy.KindDuplicateRecord, code
	case pgCodeForeignKeyViolation:
		return budgetbuddy.KindInvalidReference, code
	case pgCodeNotNullViolation:
		return budgetbuddy.KindMissingRequiredField, code
	case pgCodeUndefinedTable:
		return budgetbuddy.KindSchemaMissing, code
	case pgCodeInvalidPassword:
		return budgetbuddy.KindAuthenticationFailed, code
	}

	if errors.Is(err, ErrAcquireTimeout) || c.IsTransient(err) {
		return budgetbuddy.KindConnectionUnavailable, code
	}

	return budgetbuddy.KindOperationFailed, code
}

// SQLState returns the server error code carried by err, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsConnectionLost reports whether err means the server connection is gone:
// connection reset, protocol error, admin shutdown or connection refused.
// These errors make the gateway unhealthy and start a pool rebuild.
func IsConnectionLost(err error) bool {
	if err == nil {
		return false
	}

	// A cancelled caller is not evidence of a broken server.
	if errors.Is(err, context.Canceled) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeConnectionDoesNotExist, pgCodeConnectionFailure, pgCodeAdminShutdown:
			return true
		}
		return false
	}

	if isNetworkError(err) {
		return true
	}

	return isTransportFailure(err)
}

// isNetworkError checks for socket-level failures.
func isNetworkError(err error) bool {
	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE} {
		if errors.Is(err, errno) {
			return true
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" || opErr.Op == "read" || opErr.Op == "write"
	}

	return false
}

// isTransportFailure checks for failures of an established connection that pgx
// reports as plain errors (closed socket, truncated protocol message).
func isTransportFailure(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"unexpected eof",
		"server closed the connection",
		"conn closed",
		"protocol error",
	} {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

var _ budgetbuddy.ErrorClassifier = (*QueryClassifier)(nil)
