package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// uniqueMessages covers drivers whose errors gorm does not translate, such
// as the pure-go sqlite used in tests.
var uniqueMessages = []string{
	"UNIQUE constraint failed",
	"Error 1062",
	"duplicate key value violates unique constraint",
}

// IsUniqueViolation reports whether err was raised by a unique index, e.g.
// a second room with the same number or a second room type code.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := err.Error()
	for _, fragment := range uniqueMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
