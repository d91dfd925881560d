package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lexdesk/case-service/internal/domain"
)

var (
	// ErrOwnerChanged is returned when a conditional ownership update finds the
	// case no longer owned by the expected staff member or no longer open.
	ErrOwnerChanged = errors.New("case owner changed concurrently")
	// ErrStatusChanged is returned when a conditional status update misses.
	ErrStatusChanged = errors.New("case status changed concurrently")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// translateError maps Postgres errors onto repository sentinels. An id that is
// not a valid uuid cannot match any row, so it reads as pgx.ErrNoRows.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		return ErrDuplicate
	case invalidTextRepresentation:
		return pgx.ErrNoRows
	}
	return err
}

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

func statusStrings(statuses []domain.CaseStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func roleStrings(roles []domain.StaffRole) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
