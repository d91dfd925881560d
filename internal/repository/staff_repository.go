package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexdesk/case-service/internal/domain"
)

// StaffRepository is the staff directory.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.StaffMember) error
	Update(ctx context.Context, staff *domain.StaffMember) error
	GetByID(ctx context.Context, id string) (*domain.StaffMember, error)
	GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error)
	// ListLeaveStarted returns staff whose leave window contains today but
	// whose notifications are still enabled.
	ListLeaveStarted(ctx context.Context, today time.Time, roles []domain.StaffRole) ([]domain.StaffMember, error)
	// ListLeaveEnded returns staff whose leave window ended before today but
	// whose notifications are still disabled.
	ListLeaveEnded(ctx context.Context, today time.Time, roles []domain.StaffRole) ([]domain.StaffMember, error)
	SetNotifications(ctx context.Context, id string, enabled bool) error
	// SetLeave replaces the leave window (nil clears it) together with the
	// notifications flag.
	SetLeave(ctx context.Context, id string, leave *domain.LeaveWindow, notificationsEnabled bool) error
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Roles                []domain.StaffRole
	LegalArea            *string
	NotificationsEnabled *bool
	Active               *bool
	ExcludeID            *string
	OldestFirst          bool
	Limit                int
	Offset               int
}

const staffColumns = `id, name, email, password_hash, role, legal_areas, leave_start, leave_end, leave_reason,
               notifications_enabled, active_flag, created_at, updated_at`

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

func leaveColumns(w *domain.LeaveWindow) (start, end *time.Time, reason *string) {
	if w == nil {
		return nil, nil, nil
	}
	s, e, r := w.Start, w.End, w.Reason
	return &s, &e, &r
}

func (r *staffRepository) Create(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        INSERT INTO staff_members (name, email, password_hash, role, legal_areas, leave_start, leave_end, leave_reason,
                                   notifications_enabled, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`

	start, end, reason := leaveColumns(staff.Leave)
	err := r.pool.QueryRow(ctx, query,
		staff.Name,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.LegalAreas,
		start,
		end,
		reason,
		staff.NotificationsEnabled,
		staff.Active,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
	return translateError(err)
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        UPDATE staff_members
        SET name=$1, email=$2, password_hash=$3, role=$4, legal_areas=$5, leave_start=$6, leave_end=$7,
            leave_reason=$8, notifications_enabled=$9, active_flag=$10, updated_at=NOW()
        WHERE id=$11`

	start, end, reason := leaveColumns(staff.Leave)
	cmd, err := r.pool.Exec(ctx, query,
		staff.Name,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.LegalAreas,
		start,
		end,
		reason,
		staff.NotificationsEnabled,
		staff.Active,
		staff.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE id=$1`
	staff, err := scanStaff(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateError(err)
	}
	return staff, nil
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE email=$1`
	return scanStaff(r.pool.QueryRow(ctx, query, email))
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members`
	args := []any{}
	clauses := []string{}

	if len(filter.Roles) > 0 {
		args = append(args, roleStrings(filter.Roles))
		clauses = append(clauses, fmt.Sprintf("role = ANY($%d)", len(args)))
	}
	if filter.LegalArea != nil {
		args = append(args, *filter.LegalArea)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(legal_areas)", len(args)))
	}
	if filter.NotificationsEnabled != nil {
		args = append(args, *filter.NotificationsEnabled)
		clauses = append(clauses, fmt.Sprintf("notifications_enabled=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if filter.ExcludeID != nil {
		args = append(args, *filter.ExcludeID)
		clauses = append(clauses, fmt.Sprintf("id<>$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	if filter.OldestFirst {
		query += " ORDER BY created_at ASC, id ASC"
	} else {
		query += " ORDER BY created_at DESC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStaff(rows)
}

func (r *staffRepository) ListLeaveStarted(ctx context.Context, today time.Time, roles []domain.StaffRole) ([]domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members
        WHERE role = ANY($1) AND leave_start <= $2 AND leave_end >= $2 AND notifications_enabled = TRUE
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, roleStrings(roles), domain.Day(today))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStaff(rows)
}

func (r *staffRepository) ListLeaveEnded(ctx context.Context, today time.Time, roles []domain.StaffRole) ([]domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members
        WHERE role = ANY($1) AND leave_end < $2 AND notifications_enabled = FALSE
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, roleStrings(roles), domain.Day(today))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStaff(rows)
}

func (r *staffRepository) SetNotifications(ctx context.Context, id string, enabled bool) error {
	const query = `UPDATE staff_members SET notifications_enabled=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, enabled, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) SetLeave(ctx context.Context, id string, leave *domain.LeaveWindow, notificationsEnabled bool) error {
	const query = `
        UPDATE staff_members
        SET leave_start=$1, leave_end=$2, leave_reason=$3, notifications_enabled=$4, updated_at=NOW()
        WHERE id=$5`
	start, end, reason := leaveColumns(leave)
	cmd, err := r.pool.Exec(ctx, query, start, end, reason, notificationsEnabled, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanStaff(row pgx.Row) (*domain.StaffMember, error) {
	var (
		staff       domain.StaffMember
		leaveStart  *time.Time
		leaveEnd    *time.Time
		leaveReason *string
	)
	if err := row.Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.PasswordHash,
		&staff.Role,
		&staff.LegalAreas,
		&leaveStart,
		&leaveEnd,
		&leaveReason,
		&staff.NotificationsEnabled,
		&staff.Active,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if leaveStart != nil && leaveEnd != nil {
		staff.Leave = &domain.LeaveWindow{Start: domain.Day(*leaveStart), End: domain.Day(*leaveEnd)}
		if leaveReason != nil {
			staff.Leave.Reason = *leaveReason
		}
	}
	return &staff, nil
}

func collectStaff(rows pgx.Rows) ([]domain.StaffMember, error) {
	var result []domain.StaffMember
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *staff)
	}
	return result, rows.Err()
}
