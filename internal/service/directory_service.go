package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/database"
	"github.com/tutorlink/tutorlink-backend/internal/model"
	"github.com/tutorlink/tutorlink-backend/internal/repository"
)

// StudentStore reads student profiles. Implemented by repository.StudentRepository.
type StudentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Student, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Student, error)
}

// TeacherStore reads teacher profiles. Implemented by repository.TeacherRepository.
type TeacherStore interface {
	GetByID(ctx context.Context, id int64) (*model.Teacher, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Teacher, error)
}

// DirectoryService resolves students and teachers, retrying transient read failures.
type DirectoryService struct {
	students StudentStore
	teachers TeacherStore
	retry    database.RetryPolicy
	log      zerolog.Logger
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(students StudentStore, teachers TeacherStore, retry database.RetryPolicy, log zerolog.Logger) *DirectoryService {
	return &DirectoryService{
		students: students,
		teachers: teachers,
		retry:    retry,
		log:      log.With().Str("component", "directory_service").Logger(),
	}
}

func (s *DirectoryService) StudentByID(ctx context.Context, id int64) (*model.Student, error) {
	st, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) (*model.Student, error) {
		return s.students.GetByID(ctx, id)
	})
	return st, notFoundAs(err, ErrStudentNotFound)
}

func (s *DirectoryService) StudentByUserID(ctx context.Context, userID int64) (*model.Student, error) {
	st, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) (*model.Student, error) {
		return s.students.GetByUserID(ctx, userID)
	})
	return st, notFoundAs(err, ErrStudentNotFound)
}

// StudentsByIDs returns the existing students among ids.
func (s *DirectoryService) StudentsByIDs(ctx context.Context, ids []int64) ([]model.Student, error) {
	return database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) ([]model.Student, error) {
		return s.students.ListByIDs(ctx, ids)
	})
}

func (s *DirectoryService) TeacherByID(ctx context.Context, id int64) (*model.Teacher, error) {
	t, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) (*model.Teacher, error) {
		return s.teachers.GetByID(ctx, id)
	})
	return t, notFoundAs(err, ErrTeacherNotFound)
}

func (s *DirectoryService) TeacherByUserID(ctx context.Context, userID int64) (*model.Teacher, error) {
	t, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) (*model.Teacher, error) {
		return s.teachers.GetByUserID(ctx, userID)
	})
	return t, notFoundAs(err, ErrTeacherNotFound)
}

// notFoundAs replaces repository.ErrNotFound with a domain sentinel and wraps anything else.
func notFoundAs(err, target error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return target
	default:
		return fmt.Errorf("%s: %w", target, err)
	}
}
