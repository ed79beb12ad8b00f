package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/database"
	"github.com/tutorlink/tutorlink-backend/internal/metrics"
	"github.com/tutorlink/tutorlink-backend/internal/model"
	"github.com/tutorlink/tutorlink-backend/internal/repository"
)

// AttemptService runs the attempt state machine:
// started → submitted → graded, driving assignment status alongside.
type AttemptService struct {
	reader      quizReader
	papers      paperSource
	assignments AssignmentStore
	attempts    AttemptStore
	dir         Directory
	retry       database.RetryPolicy
	now         Clock
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService. A nil clock means time.Now.
func NewAttemptService(
	quizzes QuizStore,
	questions QuestionStore,
	assignments AssignmentStore,
	attempts AttemptStore,
	dir Directory,
	cache PaperCache,
	retry database.RetryPolicy,
	clock Clock,
	log zerolog.Logger,
) *AttemptService {
	if clock == nil {
		clock = time.Now
	}
	log = log.With().Str("component", "attempt_service").Logger()
	reader := quizReader{quizzes: quizzes, questions: questions, retry: retry, log: log}
	return &AttemptService{
		reader:      reader,
		papers:      paperSource{reader: reader, cache: cache, log: log},
		assignments: assignments,
		attempts:    attempts,
		dir:         dir,
		retry:       retry,
		now:         clock,
		log:         log,
	}
}

// ─── State transitions ─────────────────────────────────────────────────

// Start opens a new attempt on one of the caller's assignments.
//
// Two concurrent starts on the same assignment can both pass the attempt
// limit check; the counter is incremented without a lock.
func (s *AttemptService) Start(ctx context.Context, actor model.Actor, assignmentID int64) (*model.StartedAttempt, error) {
	student, err := s.callerStudent(ctx, actor)
	if err != nil {
		return nil, err
	}
	assignment, err := s.ownAssignment(ctx, student, assignmentID)
	if err != nil {
		return nil, err
	}

	quiz, err := s.reader.get(ctx, assignment.QuizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, ErrQuizNotFound
	}
	if quiz.Status != model.QuizStatusPublished {
		return nil, ErrQuizNotPublished
	}
	if quiz.MaxAttempts != nil && assignment.Attempts >= *quiz.MaxAttempts {
		return nil, ErrAttemptsExhausted
	}
	now := s.now()
	if assignment.PastDue(now) {
		return nil, ErrDueDatePassed
	}

	paper, err := s.papers.load(ctx, quiz)
	if err != nil {
		return nil, fmt.Errorf("load paper: %w", err)
	}

	if err := s.assignments.RecordStart(ctx, assignment); err != nil {
		return nil, fmt.Errorf("record start: %w", notFoundAs(err, ErrAssignmentNotFound))
	}

	attempt := &model.Attempt{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		MaxScore:     quiz.TotalMarks,
		StartedAt:    now,
		Answers:      model.Answers{},
		Status:       model.AttemptStatusStarted,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	metrics.AttemptEvents.WithLabelValues("started").Inc()
	s.log.Info().
		Int64("attempt_id", attempt.ID).
		Int64("assignment_id", assignment.ID).
		Int64("student_id", student.ID).
		Int("attempts", assignment.Attempts).
		Msg("Attempt started")

	return &model.StartedAttempt{Attempt: *attempt, Assignment: *assignment, Paper: paper}, nil
}

// Submit grades objective answers and closes the attempt. A quiz with essays
// stays submitted until a teacher grades it; otherwise the attempt is final.
func (s *AttemptService) Submit(ctx context.Context, actor model.Actor, attemptID int64, submitted map[string]string) (*model.Attempt, error) {
	student, err := s.callerStudent(ctx, actor)
	if err != nil {
		return nil, err
	}
	attempt, err := s.attempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != student.ID {
		return nil, ErrNotAttemptOwner
	}
	if attempt.SubmittedAt != nil || attempt.Finished() {
		return nil, ErrAlreadySubmitted
	}

	assignment, err := s.assignment(ctx, attempt.AssignmentID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.reader.getWithQuestions(ctx, assignment.QuizID)
	if err != nil {
		return nil, err
	}

	answers, score := gradeSubmission(quiz.Questions, submitted)
	now := s.now()
	attempt.SubmittedAt = &now
	attempt.Answers = answers
	attempt.Score = score
	attempt.TimeTaken = minutesBetween(attempt.StartedAt, now)
	attempt.Status = model.AttemptStatusGraded
	if quiz.HasEssay() {
		attempt.Status = model.AttemptStatusSubmitted
	}

	if err := s.attempts.Submit(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("submit attempt: %w", err)
	}
	if err := s.assignments.UpdateStatus(ctx, assignment.ID, model.AssignmentStatusCompleted); err != nil {
		return nil, fmt.Errorf("complete assignment: %w", err)
	}

	event := "submitted"
	if attempt.Status == model.AttemptStatusGraded {
		event = "auto_graded"
	}
	metrics.AttemptEvents.WithLabelValues(event).Inc()
	s.log.Info().
		Int64("attempt_id", attempt.ID).
		Int64("assignment_id", assignment.ID).
		Float64("score", attempt.Score).
		Float64("max_score", attempt.MaxScore).
		Str("status", string(attempt.Status)).
		Msg("Attempt submitted")
	return attempt, nil
}

// Grade overwrites marks for the given questions of a finished attempt and adds
// the difference to its score. Only the teacher who owns the quiz may grade.
func (s *AttemptService) Grade(ctx context.Context, actor model.Actor, attemptID int64, grades map[string]float64) (*model.Attempt, error) {
	if actor.Role != model.RoleTeacher {
		return nil, ErrForbidden
	}
	attempt, err := s.attempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	assignment, err := s.assignment(ctx, attempt.AssignmentID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.reader.getWithQuestions(ctx, assignment.QuizID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwningTeacher(ctx, s.dir, actor, quiz); err != nil {
		return nil, err
	}
	if !attempt.Finished() {
		return nil, ErrAttemptNotSubmitted
	}

	delta, err := applyGrades(attempt.Answers, quiz.Questions, grades)
	if err != nil {
		return nil, err
	}
	attempt.Score = roundCents(attempt.Score + delta)
	attempt.Status = model.AttemptStatusGraded

	if err := s.attempts.SaveGrades(ctx, attempt); err != nil {
		return nil, fmt.Errorf("save grades: %w", notFoundAs(err, ErrAttemptNotFound))
	}
	if err := s.assignments.UpdateStatus(ctx, assignment.ID, model.AssignmentStatusCompleted); err != nil {
		return nil, fmt.Errorf("complete assignment: %w", err)
	}

	metrics.AttemptEvents.WithLabelValues("manually_graded").Inc()
	s.log.Info().
		Int64("attempt_id", attempt.ID).
		Int64("graded_by", actor.UserID).
		Float64("delta", delta).
		Float64("score", attempt.Score).
		Msg("Attempt graded")
	return attempt, nil
}

// ResetAttempts deletes every attempt of an assignment and reopens it.
// Support tool for admins and the owning teacher.
func (s *AttemptService) ResetAttempts(ctx context.Context, actor model.Actor, assignmentID int64) (*model.ResetAttemptsResult, error) {
	assignment, err := s.assignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.reader.get(ctx, assignment.QuizID)
	if err != nil {
		return nil, err
	}
	if err := ensureOversee(ctx, s.dir, actor, quiz); err != nil {
		return nil, err
	}

	if err := s.assignments.ResetAttempts(ctx, assignment.ID); err != nil {
		return nil, fmt.Errorf("reset attempts: %w", notFoundAs(err, ErrAssignmentNotFound))
	}

	metrics.AttemptEvents.WithLabelValues("reset").Inc()
	s.log.Info().
		Int64("assignment_id", assignment.ID).
		Int64("reset_by", actor.UserID).
		Int("previous_attempts", assignment.Attempts).
		Msg("Assignment attempts reset")
	return &model.ResetAttemptsResult{Message: "Quiz attempts reset successfully", Attempts: 0}, nil
}

// ─── Reads ─────────────────────────────────────────────────────────────

// ListMine returns the caller's finished attempts, latest first.
func (s *AttemptService) ListMine(ctx context.Context, actor model.Actor) ([]model.AttemptSummary, error) {
	student, err := s.callerStudent(ctx, actor)
	if err != nil {
		return nil, err
	}

	attempts, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) ([]model.Attempt, error) {
		return s.attempts.ListFinishedByStudent(ctx, student.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	r := s.newReviewer()
	summaries := make([]model.AttemptSummary, 0, len(attempts))
	for i := range attempts {
		summary, _, err := r.summarize(ctx, &attempts[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// Details returns the per-question review of one of the caller's finished attempts.
func (s *AttemptService) Details(ctx context.Context, actor model.Actor, attemptID int64) (*model.AttemptReview, error) {
	student, err := s.callerStudent(ctx, actor)
	if err != nil {
		return nil, err
	}
	attempt, err := s.attempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != student.ID {
		return nil, ErrNotAttemptOwner
	}
	if !attempt.Finished() {
		return nil, ErrAttemptNotSubmitted
	}
	return s.newReviewer().review(ctx, attempt)
}

// AssignmentResult returns the review of the latest finished attempt of one of
// the caller's assignments.
func (s *AttemptService) AssignmentResult(ctx context.Context, actor model.Actor, assignmentID int64) (*model.AttemptReview, error) {
	student, err := s.callerStudent(ctx, actor)
	if err != nil {
		return nil, err
	}
	assignment, err := s.ownAssignment(ctx, student, assignmentID)
	if err != nil {
		return nil, err
	}

	attempt, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) (*model.Attempt, error) {
		return s.attempts.LatestFinished(ctx, assignment.ID)
	})
	if err != nil {
		return nil, notFoundAs(err, ErrAttemptNotFound)
	}
	return s.newReviewer().review(ctx, attempt)
}

// QuizResults returns one row per assignment of a quiz with its latest finished attempt.
func (s *AttemptService) QuizResults(ctx context.Context, actor model.Actor, quizID int64) ([]model.QuizResult, error) {
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

	results := make([]model.QuizResult, 0, len(assignments))
	for _, a := range assignments {
		row := model.QuizResult{
			AssignmentID: a.ID,
			StudentID:    a.StudentID,
			AssignedAt:   a.AssignedAt,
			DueDate:      a.DueDate,
			Status:       a.Status,
			AttemptCount: a.Attempts,
			MaxScore:     quiz.TotalMarks,
			Answers:      model.Answers{},
		}
		if a.Student != nil && a.Student.User != nil {
			row.StudentName = a.Student.User.FullName()
			row.StudentEmail = a.Student.User.Email
		}

		attempt, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) (*model.Attempt, error) {
			return s.attempts.LatestFinished(ctx, a.ID)
		})
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("latest attempt: %w", err)
		default:
			score, taken, started := attempt.Score, attempt.TimeTaken, attempt.StartedAt
			row.ID = attempt.ID
			row.StartedAt = &started
			row.SubmittedAt = attempt.SubmittedAt
			row.Score = &score
			row.MaxScore = attempt.MaxScore
			row.TimeTaken = &taken
			row.Answers = attempt.Answers
			row.Graded = attempt.Status == model.AttemptStatusGraded
		}
		results = append(results, row)
	}
	return results, nil
}

// ─── Helpers ───────────────────────────────────────────────────────────

func (s *AttemptService) callerStudent(ctx context.Context, actor model.Actor) (*model.Student, error) {
	if actor.Role != model.RoleStudent {
		return nil, ErrForbidden
	}
	return s.dir.StudentByUserID(ctx, actor.UserID)
}

func (s *AttemptService) attempt(ctx context.Context, id int64) (*model.Attempt, error) {
	a, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) (*model.Attempt, error) {
		return s.attempts.GetByID(ctx, id)
	})
	return a, notFoundAs(err, ErrAttemptNotFound)
}

func (s *AttemptService) assignment(ctx context.Context, id int64) (*model.Assignment, error) {
	a, err := database.WithRetry(ctx, s.retry, s.log, func(ctx context.Context) (*model.Assignment, error) {
		return s.assignments.GetByID(ctx, id)
	})
	return a, notFoundAs(err, ErrAssignmentNotFound)
}

// ownAssignment hides other students' assignments behind not-found.
func (s *AttemptService) ownAssignment(ctx context.Context, student *model.Student, id int64) (*model.Assignment, error) {
	a, err := s.assignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.StudentID != student.ID {
		return nil, ErrAssignmentNotFound
	}
	return a, nil
}

// reviewer builds attempt summaries, memoising quizzes, assignments and
// teachers for the duration of one call.
type reviewer struct {
	s           *AttemptService
	assignments map[int64]*model.Assignment
	quizzes     map[int64]*model.Quiz
	teachers    map[int64]*model.Teacher
}

func (s *AttemptService) newReviewer() *reviewer {
	return &reviewer{
		s:           s,
		assignments: map[int64]*model.Assignment{},
		quizzes:     map[int64]*model.Quiz{},
		teachers:    map[int64]*model.Teacher{},
	}
}

func (r *reviewer) summarize(ctx context.Context, attempt *model.Attempt) (*model.AttemptSummary, *model.Quiz, error) {
	assignment, ok := r.assignments[attempt.AssignmentID]
	if !ok {
		a, err := r.s.assignment(ctx, attempt.AssignmentID)
		if err != nil {
			return nil, nil, err
		}
		assignment = a
		r.assignments[a.ID] = a
	}

	quiz, ok := r.quizzes[assignment.QuizID]
	if !ok {
		q, err := r.s.reader.getWithQuestions(ctx, assignment.QuizID)
		if err != nil {
			return nil, nil, err
		}
		quiz = q
		r.quizzes[q.ID] = q
	}

	summary := &model.AttemptSummary{
		ID:          attempt.ID,
		Score:       attempt.Score,
		MaxScore:    attempt.MaxScore,
		Percentage:  attempt.Percentage(),
		SubmittedAt: attempt.SubmittedAt,
		TimeTaken:   attempt.TimeTaken,
		Status:      attempt.Status,
		Quiz: model.QuizSummary{
			ID:            quiz.ID,
			Title:         quiz.Title,
			Description:   quiz.Description,
			TotalMarks:    quiz.TotalMarks,
			TimeLimit:     quiz.TimeLimit,
			QuestionCount: len(quiz.Questions),
		},
		Assignment: model.AssignmentSummary{
			ID:         assignment.ID,
			AssignedAt: assignment.AssignedAt,
			DueDate:    assignment.DueDate,
		},
	}

	if teacher := r.teacher(ctx, quiz.TeacherID); teacher != nil && teacher.User != nil {
		summary.Quiz.TeacherName = teacher.User.FullName()
		summary.Quiz.TeacherEmail = teacher.User.Email
	}
	return summary, quiz, nil
}

// teacher resolves a quiz author; lookup failures only cost the name.
func (r *reviewer) teacher(ctx context.Context, id *int64) *model.Teacher {
	if id == nil {
		return nil
	}
	if t, ok := r.teachers[*id]; ok {
		return t
	}
	t, err := r.s.dir.TeacherByID(ctx, *id)
	if err != nil {
		r.s.log.Warn().Err(err).Int64("teacher_id", *id).Msg("Failed to resolve quiz teacher")
		t = nil
	}
	r.teachers[*id] = t
	return t
}

func (r *reviewer) review(ctx context.Context, attempt *model.Attempt) (*model.AttemptReview, error) {
	summary, quiz, err := r.summarize(ctx, attempt)
	if err != nil {
		return nil, err
	}

	questions := make([]model.QuestionReview, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		record := attempt.Answers[strconv.FormatInt(q.ID, 10)]
		options := q.Options
		if options == nil {
			options = []string{}
		}
		questions = append(questions, model.QuestionReview{
			ID:            q.ID,
			Text:          q.Text,
			Type:          q.Type,
			Options:       options,
			Marks:         q.Marks,
			StudentAnswer: record.StudentAnswer,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			IsCorrect:     CheckAnswer(q, record.StudentAnswer),
			PointsEarned:  record.Marks,
		})
	}
	return &model.AttemptReview{AttemptSummary: *summary, Questions: questions}, nil
}
