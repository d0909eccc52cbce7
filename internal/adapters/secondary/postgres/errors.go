package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
)

// Postgres SQLSTATE codes the repositories translate.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	parentConstraint = "vendor_messages_parent_id_fkey"
)

// mapError translates driver errors into the core error families. Constraint
// violations are validation failures; everything else is transient.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			if pgErr.ConstraintName == parentConstraint {
				return apperrors.ErrInvalidParent
			}
			return apperrors.ErrScopeUnresolved
		case pgCheckViolation:
			return fmt.Errorf("%w: %s", apperrors.ErrValidation, pgErr.ConstraintName)
		}
	}

	return apperrors.StoreError(op, err)
}
