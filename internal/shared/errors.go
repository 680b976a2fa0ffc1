package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrInvalidInput indicates malformed, missing or out-of-enum request data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidOperation indicates a business rule rejected the operation.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrStorageFailure indicates the transaction could not be committed.
	ErrStorageFailure = errors.New("storage failure")
	// ErrDuplicateSaleNumber is wrapped by ErrStorageFailure when sale_number collides.
	ErrDuplicateSaleNumber = errors.New("duplicate sale number")
)

const (
	pgUniqueViolation = "23505"
	saleNumberKey     = "sales_sale_number_key"
)

// InvalidInput builds an ErrInvalidInput carrying a field-level message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// StorageError classifies an error returned from a transaction. Errors that
// already carry a domain kind pass through untouched.
func StorageError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidOperation),
		errors.Is(err, ErrStorageFailure):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == saleNumberKey {
		return fmt.Errorf("%w: %w", ErrStorageFailure, ErrDuplicateSaleNumber)
	}
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}

// ErrorKind returns a short label for metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidOperation):
		return "invalid_operation"
	default:
		return "storage_failure"
	}
}

// IsInternal reports whether err is not attributable to the caller.
func IsInternal(err error) bool {
	return err != nil && ErrorKind(err) == "storage_failure"
}
