package apperr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// FromDatabase translates a Postgres driver error into the application taxonomy.
// Errors that are already *Error pass through unchanged.
func FromDatabase(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound("resource not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		var connErr *pgconn.ConnectError
		if errors.As(err, &connErr) {
			return Integration("database unavailable", err)
		}
		return Database("database operation failed", err)
	}

	switch {
	case pgErr.Code == "23505":
		return Conflict("resource already exists", err).WithCode(constraintCode("DUPLICATE", pgErr))
	case pgErr.Code == "23503":
		return Validation("referenced resource does not exist", foreignKeyFields(pgErr)).WithCode(constraintCode("INVALID_REFERENCE", pgErr))
	case pgErr.Code == "23502":
		return Validation("required field is missing", map[string]string{pgErr.ColumnName: "is required"})
	case pgErr.Code == "23514":
		return Validation("value violates a check constraint", nil).WithCode(constraintCode("CHECK_VIOLATION", pgErr))
	case pgErr.Code == "22P02", pgErr.Code == "22003", pgErr.Code == "22007", pgErr.Code == "22008":
		return Validation("invalid value", nil)
	case pgErr.Code == "42501":
		forbidden := Authorization("insufficient privileges")
		forbidden.Cause = err
		return forbidden
	case pgErr.Code == "28000", pgErr.Code == "28P01":
		return Authentication("database authentication failed", err)
	case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01", pgErr.Code == "53300":
		return Integration("database unavailable", err)
	default:
		return Database("database operation failed", err)
	}
}

func constraintCode(prefix string, pgErr *pgconn.PgError) string {
	if pgErr.ConstraintName == "" {
		return prefix
	}
	return prefix + ":" + pgErr.ConstraintName
}

func foreignKeyFields(pgErr *pgconn.PgError) map[string]string {
	if pgErr.ColumnName != "" {
		return map[string]string{pgErr.ColumnName: "does not exist"}
	}
	return nil
}
