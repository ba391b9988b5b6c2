package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-hub-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
)

// dbErr classifies a driver failure. An error the server reported
// (*pgconn.PgError) or a caller cancellation keeps its detail; anything else
// means the database could not be reached and maps to ErrBackendUnavailable.
func dbErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrBackendUnavailable, err)
}
