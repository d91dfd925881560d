package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: ErrDuplicate},
		{name: "malformed uuid", err: fmt.Errorf("scan: %w", &pgconn.PgError{Code: "22P02"}), want: pgx.ErrNoRows},
		{name: "no rows", err: pgx.ErrNoRows, want: pgx.ErrNoRows},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.err), tt.want)
		})
	}

	other := &pgconn.PgError{Code: "40001"}
	assert.Same(t, other, translateError(other))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, translateError(plain))
}
