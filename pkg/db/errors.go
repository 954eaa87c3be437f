package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"

	pgUniqueViolation = "23505"
)

// IsUniqueViolation reports whether err is a unique constraint failure on
// either Postgres or SQLite. When constraint is set, the failing constraint
// (Postgres) or column list (SQLite) must mention it.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return constraint == "" || strings.Contains(pgErr.ConstraintName, constraint)
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") && !strings.Contains(msg, "duplicate key value") {
		return false
	}
	return constraint == "" || strings.Contains(msg, constraint)
}
