package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexdesk/case-service/internal/domain"
)

// StudentRepository defines persistence access for students.
type StudentRepository interface {
	Create(ctx context.Context, student *domain.Student) error
	GetByID(ctx context.Context, id string) (*domain.Student, error)
	GetByEmail(ctx context.Context, email string) (*domain.Student, error)
}

type studentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository returns a Postgres-backed implementation.
func NewStudentRepository(pool *pgxpool.Pool) StudentRepository {
	return &studentRepository{pool: pool}
}

func (r *studentRepository) Create(ctx context.Context, student *domain.Student) error {
	const query = `
        INSERT INTO students (name, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		student.Name,
		student.Email,
		student.PasswordHash,
	).Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt)
	return translateError(err)
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	const query = `
        SELECT id, name, email, password_hash, created_at, updated_at
        FROM students WHERE id=$1`
	return r.fetch(ctx, query, id)
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (*domain.Student, error) {
	const query = `
        SELECT id, name, email, password_hash, created_at, updated_at
        FROM students WHERE email=$1`
	return r.fetch(ctx, query, email)
}

func (r *studentRepository) fetch(ctx context.Context, query string, arg any) (*domain.Student, error) {
	var student domain.Student
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&student.ID,
		&student.Name,
		&student.Email,
		&student.PasswordHash,
		&student.CreatedAt,
		&student.UpdatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &student, nil
}
