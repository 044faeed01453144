package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"document-ingestion-service/internal/apperror"
)

const uniqueViolation pq.ErrorCode = "23505"

// translateError : maps driver errors onto the apperror sentinels
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", apperror.ErrUniqueViolation, pqErr.Constraint)
	}
	return err
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}
