package services

import (
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/go-faster/errors"
)

func TestMapPgError(t *testing.T) {
	require.NoError(t, mapPgErrorToServiceError(nil))

	svcErr := requireServiceCode(t, mapPgError(pgx.ErrNoRows), CodeNotFound)
	require.Equal(t, http.StatusNotFound, svcErr.Status)

	// Wrapped pg errors still map.
	wrapped := errors.Wrap(&pgconn.PgError{Code: "23505", ConstraintName: "asset_assignments_pending_per_asset"}, "insert assignment")
	svcErr = requireServiceCode(t, mapPgError(wrapped), CodeConflict)
	require.Equal(t, http.StatusConflict, svcErr.Status)
	require.Contains(t, svcErr.Message, "pending")

	svcErr = requireServiceCode(t, mapPgError(&pgconn.PgError{Code: "23505", ConstraintName: "assets_tenant_id_code_key"}), CodeConflict)
	require.Contains(t, svcErr.Message, "code")

	svcErr = requireServiceCode(t, mapPgError(&pgconn.PgError{Code: "23503"}), CodeInvalidState)
	require.Equal(t, http.StatusUnprocessableEntity, svcErr.Status)

	svcErr = requireServiceCode(t, mapPgError(&pgconn.PgError{Code: "57014"}), CodeInternal)
	require.Equal(t, http.StatusInternalServerError, svcErr.Status)

	// An existing ServiceError passes through untouched.
	orig := errForbidden("nope")
	require.Same(t, orig, mapPgError(orig))

	// Non-pg errors pass through for the caller to classify.
	plain := errors.New("boom")
	require.Equal(t, plain, mapPgError(plain))
}
