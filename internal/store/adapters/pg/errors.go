package pg

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
)

// mapErr traduce errores de postgres a los sentinels del repositorio y
// agrega contexto de la operación.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	if errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("pg: %s: %w", op, repository.ErrTxDone)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("pg: %s: %w (%s)", op, repository.ErrConflict, pgErr.ConstraintName)
		case "23503", "23514": // foreign_key_violation, check_violation
			return fmt.Errorf("pg: %s: %w: %s", op, repository.ErrInvalidInput, pgErr.Message)
		}
	}
	return fmt.Errorf("pg: %s: %w", op, err)
}
