package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		require.Nil(t, ToDomainError(nil))
		require.NoError(t, MapError(nil))
	})

	t.Run("keeps domain errors", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", NewConflict("busy", map[string]any{"id": "1"}))
		de := ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, CodeConflict, de.Code)
		assert.Equal(t, http.StatusConflict, de.HTTPStatus)
		assert.Equal(t, "1", de.Details["id"])
	})

	t.Run("maps no rows to not found", func(t *testing.T) {
		de := ToDomainError(fmt.Errorf("get staff: %w", pgx.ErrNoRows))
		assert.Equal(t, CodeNotFound, de.Code)
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	})

	t.Run("maps malformed uuid to not found", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "x"`}
		de := ToDomainError(fmt.Errorf("get staff: %w", pgErr))
		assert.Equal(t, CodeNotFound, de.Code)
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	})

	t.Run("falls back to internal", func(t *testing.T) {
		cause := errors.New("connection reset")
		de := ToDomainError(cause)
		assert.Equal(t, CodeInternal, de.Code)
		assert.ErrorIs(t, de, cause)
	})
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(NewNotFound("staff", nil), CodeNotFound))
	assert.True(t, IsCode(NewInvalidRequest("bad", nil), CodeValidationFailed))
	assert.False(t, IsCode(errors.New("plain"), CodeNotFound))
}
