package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexdesk/case-service/internal/domain"
)

// CaseFilter selects case studies. Zero-valued fields are ignored.
type CaseFilter struct {
	StudentID *string
	LegalArea *string
	Statuses  []domain.CaseStatus
	// OwnerID matches the current owner. With IncludeUnowned, unowned cases
	// match as well; IncludeUnowned alone selects only unowned cases.
	OwnerID         *string
	IncludeUnowned  bool
	PreviousOwnerID *string
	// InvolvedStaffID matches cases the staff member owns or previously owned.
	InvolvedStaffID *string
	// Limit <= 0 returns every matching row.
	Limit  int
	Offset int
}

// CaseRepository is the case assignment store.
type CaseRepository interface {
	Create(ctx context.Context, cs *domain.CaseStudy) error
	GetByID(ctx context.Context, id string) (*domain.CaseStudy, error)
	List(ctx context.Context, filter CaseFilter) ([]domain.CaseStudy, error)
	// Reassign applies change only while the case is still owned by
	// change.ExpectedOwnerID and in an open status; otherwise ErrOwnerChanged.
	Reassign(ctx context.Context, change domain.CaseOwnerChange) error
	// UpdateStatus moves a case from one status to another; ErrStatusChanged
	// when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.CaseStatus) error
	// WithinTx runs fn against a repository bound to a single transaction.
	WithinTx(ctx context.Context, fn func(CaseRepository) error) error
}

const caseColumns = `id, student_id, legal_area, title, status, owner_staff_id, previous_owner_staff_id,
               reassigned_at, reassignment_reason, created_at, updated_at`

type caseRepository struct {
	db dbtx
}

// NewCaseRepository instantiates the repository.
func NewCaseRepository(pool *pgxpool.Pool) CaseRepository {
	return &caseRepository{db: pool}
}

func (r *caseRepository) Create(ctx context.Context, cs *domain.CaseStudy) error {
	const query = `
        INSERT INTO case_studies (student_id, legal_area, title, status, owner_staff_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		cs.StudentID,
		cs.LegalArea,
		cs.Title,
		cs.Status,
		cs.OwnerID,
	).Scan(&cs.ID, &cs.CreatedAt, &cs.UpdatedAt)
}

func (r *caseRepository) GetByID(ctx context.Context, id string) (*domain.CaseStudy, error) {
	query := `SELECT ` + caseColumns + ` FROM case_studies WHERE id=$1`
	cs, err := scanCase(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateError(err)
	}
	return cs, nil
}

func (r *caseRepository) List(ctx context.Context, filter CaseFilter) ([]domain.CaseStudy, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		clauses = append(clauses, fmt.Sprintf("student_id=$%d", len(args)))
	}
	if filter.LegalArea != nil {
		args = append(args, *filter.LegalArea)
		clauses = append(clauses, fmt.Sprintf("legal_area=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, statusStrings(filter.Statuses))
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	switch {
	case filter.OwnerID != nil && filter.IncludeUnowned:
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("(owner_staff_id=$%d OR owner_staff_id IS NULL)", len(args)))
	case filter.OwnerID != nil:
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_staff_id=$%d", len(args)))
	case filter.IncludeUnowned:
		clauses = append(clauses, "owner_staff_id IS NULL")
	}
	if filter.PreviousOwnerID != nil {
		args = append(args, *filter.PreviousOwnerID)
		clauses = append(clauses, fmt.Sprintf("previous_owner_staff_id=$%d", len(args)))
	}
	if filter.InvolvedStaffID != nil {
		args = append(args, *filter.InvolvedStaffID)
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(owner_staff_id=%s OR previous_owner_staff_id=%s)", p, p))
	}

	query := fmt.Sprintf(`SELECT %s FROM case_studies WHERE %s ORDER BY created_at ASC, id ASC`,
		caseColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CaseStudy
	for rows.Next() {
		cs, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *cs)
	}
	return result, rows.Err()
}

func (r *caseRepository) Reassign(ctx context.Context, change domain.CaseOwnerChange) error {
	const query = `
        UPDATE case_studies
        SET owner_staff_id=$1, previous_owner_staff_id=$2, reassigned_at=$3, reassignment_reason=$4, updated_at=NOW()
        WHERE id=$5 AND owner_staff_id IS NOT DISTINCT FROM $6 AND status = ANY($7)`
	cmd, err := r.db.Exec(ctx, query,
		change.OwnerID,
		change.PreviousOwnerID,
		change.ReassignedAt,
		change.Reason,
		change.CaseID,
		change.ExpectedOwnerID,
		statusStrings(domain.OpenCaseStatuses()),
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOwnerChanged
	}
	return nil
}

func (r *caseRepository) UpdateStatus(ctx context.Context, id string, from, to domain.CaseStatus) error {
	const query = `UPDATE case_studies SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	cmd, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *caseRepository) WithinTx(ctx context.Context, fn func(CaseRepository) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&caseRepository{db: tx})
	})
}

func scanCase(row pgx.Row) (*domain.CaseStudy, error) {
	var cs domain.CaseStudy
	if err := row.Scan(
		&cs.ID,
		&cs.StudentID,
		&cs.LegalArea,
		&cs.Title,
		&cs.Status,
		&cs.OwnerID,
		&cs.PreviousOwnerID,
		&cs.ReassignedAt,
		&cs.ReassignmentReason,
		&cs.CreatedAt,
		&cs.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &cs, nil
}
