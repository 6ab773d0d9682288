package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	switch sqlState(err) {
	case "40001":
		return ErrorClassSerialization
	case "40P01":
		return ErrorClassDeadlock
	case "55P03":
		return ErrorClassTransient
	case "23505", "23503", "23502", "23514":
		return ErrorClassPermanent
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassPermanent
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

func IsUniqueViolation(err error) bool {
	return sqlState(err) == "23505"
}

func IsForeignKeyViolation(err error) bool {
	return sqlState(err) == "23503"
}

// sqlState extracts the SQLSTATE code from either driver's error type.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

// Error kinds. Every business failure returned by the service layer matches
// exactly one of these through errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrOutOfStock        = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrForbidden         = errors.New("forbidden")
	ErrEmptyCart         = errors.New("shopping cart is empty")
	ErrInvalidRange      = errors.New("start date cannot be after end date")
	ErrPersistence       = errors.New("persistence error")
)

var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrConflict,
	ErrOutOfStock,
	ErrInvalidTransition,
	ErrForbidden,
	ErrEmptyCart,
	ErrInvalidRange,
	ErrPersistence,
}

var (
	ErrAccountNotFound  = fmt.Errorf("account %w", ErrNotFound)
	ErrBookNotFound     = fmt.Errorf("book %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrCartLineNotFound = fmt.Errorf("cart item %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrBadCredentials   = fmt.Errorf("invalid username or password: %w", ErrNotFound)

	ErrUsernameTaken     = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrDuplicateBook     = fmt.Errorf("%w: a book with this title and author already exists", ErrConflict)
	ErrDuplicateCategory = fmt.Errorf("%w: a category with this name already exists", ErrConflict)
	ErrBookInUse         = fmt.Errorf("%w: book is referenced by existing orders", ErrConflict)

	ErrOrderNotOwned = fmt.Errorf("%w: you are not the owner of this order", ErrForbidden)
	ErrAdminOnly     = fmt.Errorf("%w: administrator role required", ErrForbidden)

	ErrOptimisticLockFailed = fmt.Errorf("%w: optimistic lock failed", ErrConflict)
)

// Kind returns the error kind err belongs to, or ErrPersistence for anything
// that is not a business failure.
func Kind(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrPersistence
}

// Validationf builds an ErrValidation error with a field-specific message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StockError reports every cart line that failed the stock re-check.
type StockError struct {
	Titles []string
}

func (e *StockError) Error() string {
	if len(e.Titles) == 0 {
		return ErrOutOfStock.Error()
	}
	return fmt.Sprintf("%s for: %s", ErrOutOfStock, strings.Join(e.Titles, ", "))
}

func (e *StockError) Unwrap() error {
	return ErrOutOfStock
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// Persist passes business errors and context cancellation through unchanged
// and wraps everything else in a PersistenceError.
func Persist(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if Kind(err) != ErrPersistence {
		return err
	}

	var pErr *PersistenceError
	if errors.As(err, &pErr) {
		return err
	}

	return &PersistenceError{Op: op, Err: err}
}
