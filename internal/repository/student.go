package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/studentdesk/studentdesk/internal/model"
)

// Common errors for student repository operations.
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrEmailExists     = errors.New("email already exists")
)

const studentColumns = `id, email, name, password_hash, COALESCE(user_id, ''), created_at, updated_at`

// CreateStudent inserts a student. The ID and CreatedAt are assigned here
// and written back into student.
func (r *Repository) CreateStudent(ctx context.Context, student *model.Student) error {
	query := `
		INSERT INTO students (id, email, name, password_hash, user_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at
	`

	id := ulid.Make().String()

	err := r.pool.QueryRow(ctx, query,
		id,
		student.Email,
		student.Name,
		student.PasswordHash,
		student.UserID,
	).Scan(&student.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	student.ID = id
	return nil
}

// GetStudentByID retrieves a student by ID.
func (r *Repository) GetStudentByID(ctx context.Context, id string) (*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	student, err := scanStudent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student by ID: %w", err)
	}

	return student, nil
}

// UpdateStudent overwrites email, name, password hash and user id of an
// existing student and sets UpdatedAt. An empty PasswordHash or UserID keeps
// the stored value.
func (r *Repository) UpdateStudent(ctx context.Context, student *model.Student) error {
	query := `
		UPDATE students
		SET email = $2,
		    name = $3,
		    password_hash = COALESCE(NULLIF($4, ''), password_hash),
		    user_id = COALESCE(NULLIF($5, ''), user_id),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + studentColumns

	updated, err := scanStudent(r.pool.QueryRow(ctx, query,
		student.ID,
		student.Email,
		student.Name,
		student.PasswordHash,
		student.UserID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStudentNotFound
		}
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to update student: %w", err)
	}

	*student = *updated
	return nil
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	var s model.Student
	err := row.Scan(
		&s.ID,
		&s.Email,
		&s.Name,
		&s.PasswordHash,
		&s.UserID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "SQLSTATE 23505")
}
