package repository

import (
	"strings"

	"easylist/internal/model"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Common repository errors
var (
	// ErrListNotFound is returned when a list is not found
	ErrListNotFound = errors.Wrap(model.ErrNotFound, "list not found")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.Wrap(model.ErrNotFound, "user not found")

	// ErrDuplicateCopy is returned when the (author, source) unique index rejects an insert
	ErrDuplicateCopy = errors.Wrap(model.ErrConflict, "duplicate copy")
)

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	// sqlite reports constraint failures as plain text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
