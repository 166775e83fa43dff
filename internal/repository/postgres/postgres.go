// Package postgres implements the repository interfaces on PostgreSQL.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// catalogTable maps a catalog content type to its table. The name is never
// taken from user input directly.
func catalogTable(ct domain.ContentType) (string, bool) {
	switch ct {
	case domain.ContentTypeGame:
		return "games", true
	case domain.ContentTypeProgram:
		return "programs", true
	}
	return "", false
}

// isForeignKeyViolation checks for SQLSTATE 23503.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
