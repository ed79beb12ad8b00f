package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/database"
	"github.com/tutorlink/tutorlink-backend/internal/metrics"
	"github.com/tutorlink/tutorlink-backend/internal/model"
)

// AssignmentService links quizzes to students.
type AssignmentService struct {
	reader      quizReader
	papers      paperSource
	quizzes     QuizStore
	assignments AssignmentStore
	dir         Directory
	retry       database.RetryPolicy
	log         zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	quizzes QuizStore,
	questions QuestionStore,
	assignments AssignmentStore,
	dir Directory,
	cache PaperCache,
	retry database.RetryPolicy,
	log zerolog.Logger,
) *AssignmentService {
	log = log.With().Str("component", "assignment_service").Logger()
	reader := quizReader{quizzes: quizzes, questions: questions, retry: retry, log: log}
	return &AssignmentService{
		reader:      reader,
		papers:      paperSource{reader: reader, cache: cache, log: log},
		quizzes:     quizzes,
		assignments: assignments,
		dir:         dir,
		retry:       retry,
		log:         log,
	}
}

// Assign creates one assignment per student. Students that already hold an
// assignment for the quiz are skipped; the call fails only if every one does.
// Any unknown student ID aborts the whole call.
func (s *AssignmentService) Assign(ctx context.Context, actor model.Actor, quizID int64, studentIDs []int64, dueDate *time.Time) ([]model.Assignment, error) {
	quiz, err := s.reader.get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive || (quiz.Status != model.QuizStatusDraft && quiz.Status != model.QuizStatusPublished) {
		return nil, ErrQuizNotFound
	}
	if err := ensureOversee(ctx, s.dir, actor, quiz); err != nil {
		return nil, err
	}

	ids := uniqueIDs(studentIDs)
	students, err := s.dir.StudentsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve students: %w", err)
	}
	if missing := missingIDs(ids, students); len(missing) > 0 {
		return nil, &MissingStudentsError{IDs: missing}
	}

	assigned, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) ([]int64, error) {
		return s.assignments.AssignedStudentIDs(ctx, quiz.ID, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("check existing assignments: %w", err)
	}
	skip := make(map[int64]struct{}, len(assigned))
	for _, id := range assigned {
		skip[id] = struct{}{}
	}

	pending := make([]model.Assignment, 0, len(ids))
	for _, id := range ids {
		if _, ok := skip[id]; ok {
			continue
		}
		pending = append(pending, model.Assignment{
			QuizID:     quiz.ID,
			StudentID:  id,
			AssignedBy: actor.UserID,
			DueDate:    dueDate,
			Status:     model.AssignmentStatusAssigned,
		})
	}
	if len(pending) == 0 {
		return nil, ErrAllStudentsAssigned
	}

	created, err := s.assignments.CreateMany(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("create assignments: %w", err)
	}

	metrics.AssignmentsCreated.Add(float64(len(created)))
	s.log.Info().
		Int64("quiz_id", quiz.ID).
		Int64("assigned_by", actor.UserID).
		Int("created", len(created)).
		Int("skipped", len(assigned)).
		Msg("Quiz assigned")
	return created, nil
}

// Remove deletes a student's assignment that has never been attempted. When the
// last assignment of a published quiz goes, the quiz drops back to draft.
func (s *AssignmentService) Remove(ctx context.Context, actor model.Actor, quizID, studentID int64) (*model.RemoveAssignmentResult, error) {
	quiz, err := s.reader.get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := ensureOversee(ctx, s.dir, actor, quiz); err != nil {
		return nil, err
	}

	assignment, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) (*model.Assignment, error) {
		return s.assignments.GetByQuizAndStudent(ctx, quiz.ID, studentID)
	})
	if err != nil {
		return nil, notFoundAs(err, ErrAssignmentNotFound)
	}
	if assignment.Attempts > 0 {
		return nil, ErrAssignmentAttempted
	}

	if err := s.assignments.Delete(ctx, assignment.ID); err != nil {
		return nil, fmt.Errorf("delete assignment: %w", notFoundAs(err, ErrAssignmentNotFound))
	}
	s.log.Info().Int64("quiz_id", quiz.ID).Int64("student_id", studentID).Msg("Assignment removed")

	result := &model.RemoveAssignmentResult{Message: "Assignment removed successfully"}
	if quiz.Status != model.QuizStatusPublished {
		return result, nil
	}

	remaining, err := s.assignments.CountByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}
	if remaining > 0 {
		return result, nil
	}

	if err := s.quizzes.UpdateStatus(ctx, quiz.ID, model.QuizStatusDraft); err != nil {
		return nil, fmt.Errorf("revert quiz to draft: %w", err)
	}
	s.papers.drop(ctx, quiz.ID)
	metrics.QuizTransitions.WithLabelValues("auto_unpublished").Inc()
	s.log.Info().Int64("quiz_id", quiz.ID).Msg("Last assignment removed, quiz reverted to draft")

	result.Message = "Assignment removed successfully. Quiz was reverted to draft since no students are assigned."
	result.QuizRevertedDraft = true
	return result, nil
}

// ListForQuiz returns a quiz's assignments with student profiles.
func (s *AssignmentService) ListForQuiz(ctx context.Context, actor model.Actor, quizID int64) ([]model.Assignment, error) {
	quiz, err := s.reader.get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := ensureOversee(ctx, s.dir, actor, quiz); err != nil {
		return nil, err
	}

	assignments, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) ([]model.Assignment, error) {
		return s.assignments.ListByQuiz(ctx, quiz.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	return assignments, nil
}

// ListForStudent returns the caller's assignments of published quizzes.
// A student account without a profile simply has none.
func (s *AssignmentService) ListForStudent(ctx context.Context, actor model.Actor) ([]model.AssignedQuiz, error) {
	if actor.Role != model.RoleStudent {
		return nil, ErrForbidden
	}

	student, err := s.dir.StudentByUserID(ctx, actor.UserID)
	if errors.Is(err, ErrStudentNotFound) {
		return []model.AssignedQuiz{}, nil
	}
	if err != nil {
		return nil, err
	}

	assigned, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) ([]model.AssignedQuiz, error) {
		return s.assignments.ListForStudent(ctx, student.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("list assigned quizzes: %w", err)
	}
	if assigned == nil {
		assigned = []model.AssignedQuiz{}
	}
	return assigned, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []int64, students []model.Student) []int64 {
	found := make(map[int64]struct{}, len(students))
	for _, st := range students {
		found[st.ID] = struct{}{}
	}
	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
