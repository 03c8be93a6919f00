package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes mapped onto domain errors
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
)

// translateError maps storage errors onto the stable domain error codes.
// Domain errors and context cancellation pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := shared.AsDomainError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.NewConflictError("resource already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewConflictError("resource is referenced by or references a missing record")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return shared.NewConflictError("resource already exists")
		case pgForeignKeyViolation:
			return shared.NewConflictError("resource is referenced by or references a missing record")
		case pgDeadlockDetected, pgSerializationFailure:
			return shared.NewDomainError(shared.CodeConcurrencyConflict,
				"Resource was modified by another process; retry the request")
		}
	}
	return err
}

// notFound returns a NOT_FOUND error naming the resource
func notFound(resource string) error {
	return shared.NewNotFoundError(resource)
}

// firstOr maps gorm.ErrRecordNotFound onto a named NOT_FOUND error
func firstOr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(resource)
	}
	return translateError(err)
}
