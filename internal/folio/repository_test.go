package folio

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/facturante/facturante/internal/shared"
)

func TestProvisionErrorClassification(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "folios_number_key"}
	require.ErrorIs(t, provisionError(dup), shared.ErrConflict)
	require.True(t, shared.IsConflict(provisionError(dup)))

	otherConstraint := &pgconn.PgError{Code: "23505", ConstraintName: "folios_pkey"}
	require.NotErrorIs(t, provisionError(otherConstraint), shared.ErrConflict)

	otherCode := &pgconn.PgError{Code: "42703", ConstraintName: "folios_number_key"}
	require.NotErrorIs(t, provisionError(otherCode), shared.ErrConflict)

	plain := errors.New("connection reset")
	require.Equal(t, plain, provisionError(plain))

	require.NoError(t, provisionError(nil))
}
