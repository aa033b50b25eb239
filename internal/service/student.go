// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studentdesk/studentdesk/internal/auth"
	"github.com/studentdesk/studentdesk/internal/cache"
	"github.com/studentdesk/studentdesk/internal/metrics"
	"github.com/studentdesk/studentdesk/internal/model"
	"github.com/studentdesk/studentdesk/internal/repository"
)

// Service errors. The create and update messages are shown to end users
// as-is, whatever the underlying cause.
var (
	ErrCreateStudent   = errors.New("Não foi possível criar o estudante")
	ErrUpdateStudent   = errors.New("Não foi possível atualizar o estudante")
	ErrStudentNotFound = errors.New("student not found")
)

// StudentError reports a failed write with a generic, user-facing message
// while keeping the underlying cause reachable through errors.Is/As.
type StudentError struct {
	// Kind is ErrCreateStudent or ErrUpdateStudent.
	Kind error
	// Err is the underlying cause.
	Err error
}

func (e *StudentError) Error() string {
	return e.Kind.Error()
}

// Unwrap exposes both the generic kind and the cause.
func (e *StudentError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// StudentStore persists students.
type StudentStore interface {
	CreateStudent(ctx context.Context, student *model.Student) error
	GetStudentByID(ctx context.Context, id string) (*model.Student, error)
	UpdateStudent(ctx context.Context, student *model.Student) error
}

// StudentCache is an optional read-through cache for students.
type StudentCache interface {
	GetStudent(ctx context.Context, id string) (*model.CachedStudent, error)
	SetStudent(ctx context.Context, student *model.Student, ttl time.Duration) error
	DeleteStudent(ctx context.Context, id string) error
}

// PasswordHasher turns a plaintext password into a storable hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// StudentOption customizes a StudentService.
type StudentOption func(*StudentService)

// WithHasher overrides the password hasher.
func WithHasher(h PasswordHasher) StudentOption {
	return func(s *StudentService) { s.hasher = h }
}

// WithCacheTTL sets how long students stay cached.
func WithCacheTTL(ttl time.Duration) StudentOption {
	return func(s *StudentService) { s.cacheTTL = ttl }
}

// StudentService handles student business logic.
type StudentService struct {
	store    StudentStore
	cache    StudentCache
	hasher   PasswordHasher
	cacheTTL time.Duration
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewStudentService creates a new StudentService. studentCache may be nil,
// in which case every read goes to the store.
func NewStudentService(store StudentStore, studentCache StudentCache, logger *slog.Logger, recorder metrics.Recorder, opts ...StudentOption) *StudentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &StudentService{
		store:    store,
		cache:    studentCache,
		hasher:   auth.NewHasher(auth.DefaultParams()),
		cacheTTL: cache.DefaultStudentTTL,
		logger:   logger,
		metrics:  recorder,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateStudent hashes the password and persists a new student. The store
// assigns the ID and creation time. Any failure is reported as a
// *StudentError matching ErrCreateStudent; there is no retry.
func (s *StudentService) CreateStudent(ctx context.Context, payload model.CreateStudentPayload) (*model.Student, error) {
	hash, err := s.hasher.Hash(payload.Password)
	if err != nil {
		return nil, s.createFailed(ctx, fmt.Errorf("hash password: %w", err))
	}

	student := &model.Student{
		Email:        payload.Email,
		Name:         payload.Name,
		PasswordHash: hash,
		UserID:       payload.UserID,
	}

	if err := s.store.CreateStudent(ctx, student); err != nil {
		return nil, s.createFailed(ctx, err)
	}

	s.metrics.IncStudentCreated()
	s.logger.InfoContext(ctx, "student created", slog.String("student_id", student.ID))

	return student, nil
}

func (s *StudentService) createFailed(ctx context.Context, cause error) error {
	s.metrics.IncStudentCreateFailed()
	s.logger.ErrorContext(ctx, "failed to create student", slog.String("error", cause.Error()))
	return &StudentError{Kind: ErrCreateStudent, Err: cause}
}

// GetStudent returns a student by ID, reading through the cache when one is
// configured. Cache failures fall back to the store.
func (s *StudentService) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	if s.cache != nil {
		cached, err := s.cache.GetStudent(ctx, id)
		switch {
		case err == nil:
			s.metrics.IncStudentCacheHit()
			return cached.ToStudent(), nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.metrics.IncStudentCacheMiss()
		default:
			s.logger.WarnContext(ctx, "student cache read failed",
				slog.String("student_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	student, err := s.store.GetStudentByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetStudent(ctx, student, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "student cache write failed",
				slog.String("student_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return student, nil
}

// UpdateStudent overwrites a student's email, name, password and user id.
// An empty password or user id keeps the stored one. A missing student yields
// ErrStudentNotFound; every other failure is a *StudentError matching
// ErrUpdateStudent.
func (s *StudentService) UpdateStudent(ctx context.Context, id string, payload model.CreateStudentPayload) (*model.Student, error) {
	student := &model.Student{
		ID:     id,
		Email:  payload.Email,
		Name:   payload.Name,
		UserID: payload.UserID,
	}

	if payload.Password != "" {
		hash, err := s.hasher.Hash(payload.Password)
		if err != nil {
			return nil, s.updateFailed(ctx, id, fmt.Errorf("hash password: %w", err))
		}
		student.PasswordHash = hash
	}

	if err := s.store.UpdateStudent(ctx, student); err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, s.updateFailed(ctx, id, err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteStudent(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "student cache invalidation failed",
				slog.String("student_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.metrics.IncStudentUpdated()
	s.logger.InfoContext(ctx, "student updated", slog.String("student_id", id))

	return student, nil
}

func (s *StudentService) updateFailed(ctx context.Context, id string, cause error) error {
	s.metrics.IncStudentUpdateFailed()
	s.logger.ErrorContext(ctx, "failed to update student",
		slog.String("student_id", id),
		slog.String("error", cause.Error()),
	)
	return &StudentError{Kind: ErrUpdateStudent, Err: cause}
}
