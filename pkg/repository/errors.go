package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgDuplicateKeyCode = "23505"
	pgForeignKeyCode   = "23503"
)

// Errors holds the domain errors a repository maps database failures onto.
// A nil field leaves the corresponding failure unmapped.
type Errors struct {
	NotFound  error
	Duplicate error
	Conflict  error
}

// MapError translates database errors to domain errors.
// It maps sql.ErrNoRows to NotFound, PostgreSQL unique violations (23505)
// to Duplicate and foreign key violations (23503) to Conflict.
// Other errors are returned unchanged.
func MapError(err error, domain Errors) error {
	if err == nil {
		return nil
	}

	if domain.NotFound != nil && errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgDuplicateKeyCode && domain.Duplicate != nil:
			return domain.Duplicate
		case pgErr.Code == pgForeignKeyCode && domain.Conflict != nil:
			return domain.Conflict
		}
	}

	return err
}
