package service

import (
	"context"
	"time"

	"github.com/tutorlink/tutorlink-backend/internal/model"
)

// QuizStore persists quiz headers. Implemented by repository.QuizRepository.
type QuizStore interface {
	GetByID(ctx context.Context, id int64) (*model.Quiz, error)
	Create(ctx context.Context, q *model.Quiz) error
	Update(ctx context.Context, q *model.Quiz) error
	UpdateStatus(ctx context.Context, id int64, status model.QuizStatus) error
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	ListActivePaginated(ctx context.Context, limit, offset int) ([]model.Quiz, int, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]model.Quiz, error)
	ListPublished(ctx context.Context) ([]model.Quiz, error)
}

// QuestionStore persists quiz questions. Implemented by repository.QuestionRepository.
type QuestionStore interface {
	ListByQuiz(ctx context.Context, quizID int64) ([]model.Question, error)
	CreateMany(ctx context.Context, quizID int64, questions []model.Question) ([]model.Question, error)
	ReplaceAll(ctx context.Context, quizID int64, questions []model.Question) ([]model.Question, error)
}

// AssignmentStore persists assignments. Implemented by repository.AssignmentRepository.
type AssignmentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Assignment, error)
	GetByQuizAndStudent(ctx context.Context, quizID, studentID int64) (*model.Assignment, error)
	AssignedStudentIDs(ctx context.Context, quizID int64, studentIDs []int64) ([]int64, error)
	CreateMany(ctx context.Context, assignments []model.Assignment) ([]model.Assignment, error)
	ListByQuiz(ctx context.Context, quizID int64) ([]model.Assignment, error)
	ListForStudent(ctx context.Context, studentID int64) ([]model.AssignedQuiz, error)
	CountByQuiz(ctx context.Context, quizID int64) (int, error)
	Delete(ctx context.Context, id int64) error
	RecordStart(ctx context.Context, a *model.Assignment) error
	UpdateStatus(ctx context.Context, id int64, status model.AssignmentStatus) error
	ResetAttempts(ctx context.Context, id int64) error
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// AttemptStore persists attempts. Implemented by repository.AttemptRepository.
type AttemptStore interface {
	GetByID(ctx context.Context, id int64) (*model.Attempt, error)
	Create(ctx context.Context, a *model.Attempt) error
	Submit(ctx context.Context, a *model.Attempt) error
	SaveGrades(ctx context.Context, a *model.Attempt) error
	CountByQuiz(ctx context.Context, quizID int64) (int, error)
	ListFinishedByStudent(ctx context.Context, studentID int64) ([]model.Attempt, error)
	LatestFinished(ctx context.Context, assignmentID int64) (*model.Attempt, error)
}

// PaperCache holds student-facing papers of published quizzes. Implemented by repository.PaperCache.
type PaperCache interface {
	Get(ctx context.Context, quizID int64) (*model.QuizPaper, error)
	Set(ctx context.Context, paper *model.QuizPaper) error
	Delete(ctx context.Context, quizID int64) error
}

// Directory resolves student and teacher profiles. Implemented by DirectoryService.
type Directory interface {
	StudentByID(ctx context.Context, id int64) (*model.Student, error)
	StudentByUserID(ctx context.Context, userID int64) (*model.Student, error)
	StudentsByIDs(ctx context.Context, ids []int64) ([]model.Student, error)
	TeacherByID(ctx context.Context, id int64) (*model.Teacher, error)
	TeacherByUserID(ctx context.Context, userID int64) (*model.Teacher, error)
}

// Clock returns the current time; tests substitute a fixed clock.
type Clock func() time.Time
