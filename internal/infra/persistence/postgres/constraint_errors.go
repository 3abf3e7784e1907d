package postgres

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}

	return nil, false
}

// uniqueViolation reports a unique constraint violation and, when the driver
// exposes it, the constraint name.
func uniqueViolation(err error) (constraint string, ok bool) {
	if pgErr, found := pgError(err); found && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}

	return "", errors.Is(err, gorm.ErrDuplicatedKey)
}

func isUniqueConstraintViolation(err error) bool {
	_, ok := uniqueViolation(err)

	return ok
}

func isForeignKeyConstraintViolation(err error) bool {
	if pgErr, found := pgError(err); found {
		return pgErr.Code == pgForeignKeyViolation
	}

	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

func isNotNullConstraintViolation(err error) bool {
	if pgErr, found := pgError(err); found {
		return pgErr.Code == pgNotNullViolation
	}

	return strings.Contains(strings.ToLower(err.Error()), "null value")
}

func isCheckConstraintViolation(err error) bool {
	if pgErr, found := pgError(err); found {
		return pgErr.Code == pgCheckViolation
	}

	return errors.Is(err, gorm.ErrCheckConstraintViolated)
}
