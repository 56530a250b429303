package gormrepo

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "users-api/pkg/errors"
)

// MsgEmailExists is the caller-facing message for a duplicate email
const MsgEmailExists = "email already exists"

const (
	mysqlErrDupEntry       = 1062    // ER_DUP_ENTRY
	pgUniqueViolation      = "23505" // unique_violation
	sqliteUniqueConstraint = "UNIQUE constraint failed"
)

// Classify maps a raw storage error into the application error taxonomy.
// It is the only place that knows about driver-specific error shapes.
// message describes the failed operation and is kept for logs.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NewNotFoundError("user", apperrors.MsgNotFound)
	case IsUniqueViolation(err):
		return &apperrors.AlreadyExistsError{Resource: "user", Message: MsgEmailExists, Err: err}
	default:
		return apperrors.NewInternalError(message, err)
	}
}

// IsUniqueViolation reports whether err is a uniqueness constraint violation for
// any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrDupEntry
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	// The sqlite driver does not export a typed constraint error
	return strings.Contains(err.Error(), sqliteUniqueConstraint)
}
