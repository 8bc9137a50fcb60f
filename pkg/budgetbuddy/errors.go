package budgetbuddy

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for database failures surfaced by the query gateway.
// Callers distinguish them with errors.Is; the messages are safe to show to API clients.
//
// Example usage:
//
//	_, err := gw.Execute(ctx, "INSERT INTO users (email) VALUES ($1)", email)
//	if errors.Is(err, budgetbuddy.ErrDuplicateRecord) {
//	    // email already registered
//	}
var (
	// ErrDuplicateRecord indicates a unique constraint was violated.
	ErrDuplicateRecord = errors.New("record already exists")

	// ErrInvalidReference indicates a foreign key constraint was violated.
	ErrInvalidReference = errors.New("referenced record does not exist")

	// ErrMissingRequiredField indicates a not-null constraint was violated.
	ErrMissingRequiredField = errors.New("missing required fields")

	// ErrSchemaMissing indicates a statement referenced a table that does not exist.
	ErrSchemaMissing = errors.New("database table does not exist")

	// ErrAuthenticationFailed indicates the database rejected the configured credentials.
	ErrAuthenticationFailed = errors.New("database authentication failed")

	// ErrConnectionUnavailable indicates the database stayed unreachable after retries.
	ErrConnectionUnavailable = errors.New("database connection error, please try again later")

	// ErrOperationFailed is the generic error for unclassified database failures.
	ErrOperationFailed = errors.New("database operation failed")
)

// Sentinel errors for service-level failures.
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates a database connection could not be established.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotFound indicates the requested record does not exist for the current user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a request failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDefaultCategory indicates an attempt to change a built-in category.
	ErrDefaultCategory = errors.New("default categories cannot be modified")

	// ErrCategoryInUse indicates a category still referenced by expenses.
	ErrCategoryInUse = errors.New("category is in use by existing expenses")
)

// ErrorKind classifies a database failure.
type ErrorKind int

const (
	KindOperationFailed ErrorKind = iota
	KindDuplicateRecord
	KindInvalidReference
	KindMissingRequiredField
	KindSchemaMissing
	KindAuthenticationFailed
	KindConnectionUnavailable
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindOperationFailed:
		return "OperationFailed"
	case KindDuplicateRecord:
		return "DuplicateRecord"
	case KindInvalidReference:
		return "InvalidReference"
	case KindMissingRequiredField:
		return "MissingRequiredField"
	case KindSchemaMissing:
		return "SchemaMissing"
	case KindAuthenticationFailed:
		return "AuthenticationFailed"
	case KindConnectionUnavailable:
		return "ConnectionUnavailable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Sentinel returns the sentinel error matching the kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindDuplicateRecord:
		return ErrDuplicateRecord
	case KindInvalidReference:
		return ErrInvalidReference
	case KindMissingRequiredField:
		return ErrMissingRequiredField
	case KindSchemaMissing:
		return ErrSchemaMissing
	case KindAuthenticationFailed:
		return ErrAuthenticationFailed
	case KindConnectionUnavailable:
		return ErrConnectionUnavailable
	default:
		return ErrOperationFailed
	}
}

// Status returns the HTTP status code equivalent of the kind.
func (k ErrorKind) Status() int {
	switch k {
	case KindDuplicateRecord:
		return http.StatusConflict
	case KindInvalidReference, KindMissingRequiredField:
		return http.StatusBadRequest
	case KindConnectionUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DBError is returned by the query gateway for every failed statement.
// Error() only ever returns the generic, client-safe message of its kind;
// the driver error stays reachable through errors.As for logging.
type DBError struct {
	Kind ErrorKind
	// Code is the SQLSTATE reported by the server, empty for transport failures.
	Code string
	Err  error
}

// NewDBError wraps cause with the given kind.
func NewDBError(kind ErrorKind, code string, cause error) *DBError {
	return &DBError{Kind: kind, Code: code, Err: cause}
}

func (e *DBError) Error() string {
	return e.Kind.Sentinel().Error()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *DBError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.Sentinel()}
	}
	return []error{e.Kind.Sentinel(), e.Err}
}

// KindOf returns the kind of a gateway error and whether err carried one.
func KindOf(err error) (ErrorKind, bool) {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Kind, true
	}
	return KindOperationFailed, false
}

// StatusForError returns the HTTP status code for an error.
// Returns 200 for nil, the kind status for gateway errors, semantic codes
// for service sentinels and 500 for everything else.
func StatusForError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if kind, ok := KindOf(err); ok {
		return kind.Status()
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrDefaultCategory),
		errors.Is(err, ErrCategoryInUse):
		return http.StatusBadRequest
	case errors.Is(err, ErrConnectionUnavailable):
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if isUsageError(err) {
		return ExitUsageError
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed),
		errors.Is(err, ErrConnectionUnavailable),
		errors.Is(err, ErrAuthenticationFailed):
		return ExitConnectionError
	case errors.Is(err, ErrSchemaMissing):
		return ExitSchemaError
	}

	if _, ok := KindOf(err); ok {
		return ExitDatabaseError
	}

	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

func isUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown flag", "unknown shorthand flag", "unknown command", "required flag", "invalid argument"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return strings.Contains(msg, "arg(s), received")
}
