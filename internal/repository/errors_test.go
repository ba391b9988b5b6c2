package repository

import (
	"context"
	"errors"
	"testing"

	"campus-hub-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestDbErrClassifiesConnectionFailure(t *testing.T) {
	err := dbErr("failed to get profile", errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	assert.ErrorIs(t, err, models.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "failed to get profile")
}

func TestDbErrKeepsServerErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	err := dbErr("failed to add group member", pgErr)
	assert.NotErrorIs(t, err, models.ErrBackendUnavailable)

	var out *pgconn.PgError
	assert.ErrorAs(t, err, &out)
}

func TestDbErrKeepsCancellation(t *testing.T) {
	err := dbErr("failed to list resources", context.Canceled)
	assert.NotErrorIs(t, err, models.ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
