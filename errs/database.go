package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Stores return these sentinels (possibly wrapped); services translate them into
// ApiErr values with the right status code.
var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrVersionMismatch    = errors.New("version mismatch")
	ErrDatabaseQuery      = errors.New("database query failed")
	ErrDatabaseConnection = errors.New("database connection failed")
)

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        tagged(entity+" not found", ErrNotFound),
	}
}

// NewVersionConflict is returned when a write carried a stale version.
func NewVersionConflict(entity string, expected, actual int64) *ApiErr {
	details := fmt.Sprintf("expected version %d", expected)
	if actual > 0 {
		details += fmt.Sprintf(", current version is %d", actual)
	}
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        tagged(entity+" was modified concurrently", ErrConflict, ErrVersionMismatch),
		Details:    details,
		Field:      "version",
	}
}

// NewDatabaseError creates a new database error with details about the operation
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s %s", operation, entity)

	switch {
	case cause == nil:
	case errors.Is(cause, ErrNotFound):
		return &ApiErr{
			StatusCode: http.StatusNotFound,
			err:        tagged(entity+" not found", ErrNotFound),
			Details:    details,
			Cause:      cause,
		}
	case errors.Is(cause, ErrAlreadyExists), strings.Contains(cause.Error(), "duplicate key"):
		return &ApiErr{
			StatusCode: http.StatusConflict,
			err:        tagged(entity+" already exists", ErrAlreadyExists),
			Details:    details,
			Cause:      cause,
		}
	case strings.Contains(cause.Error(), "connection"):
		return &ApiErr{
			StatusCode: http.StatusInternalServerError,
			err:        ErrDatabaseConnection,
			Details:    "Unable to connect to database",
			Cause:      cause,
			Retryable:  true,
		}
	}

	// Generic database error
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseQuery,
		Details:    details,
		Cause:      cause,
		Retryable:  true,
	}
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
