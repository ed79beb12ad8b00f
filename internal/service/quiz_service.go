package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/database"
	"github.com/tutorlink/tutorlink-backend/internal/metrics"
	"github.com/tutorlink/tutorlink-backend/internal/model"
	"github.com/tutorlink/tutorlink-backend/internal/response"
)

// QuizService handles quiz authoring and the published paper cache.
type QuizService struct {
	reader    quizReader
	papers    paperSource
	quizzes   QuizStore
	questions QuestionStore
	attempts  AttemptStore
	dir       Directory
	log       zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	quizzes QuizStore,
	questions QuestionStore,
	attempts AttemptStore,
	dir Directory,
	cache PaperCache,
	retry database.RetryPolicy,
	log zerolog.Logger,
) *QuizService {
	log = log.With().Str("component", "quiz_service").Logger()
	reader := quizReader{quizzes: quizzes, questions: questions, retry: retry, log: log}
	return &QuizService{
		reader:    reader,
		papers:    paperSource{reader: reader, cache: cache, log: log},
		quizzes:   quizzes,
		questions: questions,
		attempts:  attempts,
		dir:       dir,
		log:       log,
	}
}

// Create validates every question, then writes the quiz and its questions.
// If the questions cannot be saved the quiz row is deleted again.
func (s *QuizService) Create(ctx context.Context, actor model.Actor, draft model.QuizDraft) (*model.Quiz, error) {
	if !actor.CanAuthor() {
		return nil, ErrForbidden
	}
	if err := validateQuestions(draft.Questions); err != nil {
		return nil, err
	}

	var teacherID *int64
	if actor.Role == model.RoleTeacher {
		teacher, err := s.dir.TeacherByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		teacherID = &teacher.ID
	}

	status := draft.Status
	if status == "" {
		status = model.QuizStatusDraft
	}

	questions, total := buildQuestions(0, draft.Questions)
	quiz := &model.Quiz{
		Title:       draft.Title,
		Description: draft.Description,
		TimeLimit:   draft.TimeLimit,
		MaxAttempts: draft.MaxAttempts,
		Status:      status,
		IsActive:    true,
		TeacherID:   teacherID,
		CreatedBy:   actor.UserID,
		TotalMarks:  total,
	}

	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}

	saved, err := s.questions.CreateMany(ctx, quiz.ID, questions)
	if err != nil {
		if delErr := s.quizzes.Delete(ctx, quiz.ID); delErr != nil {
			s.log.Error().Err(delErr).Int64("quiz_id", quiz.ID).Msg("Failed to remove quiz after question save failure")
		}
		return nil, fmt.Errorf("save questions: %w", err)
	}
	quiz.Questions = saved

	s.papers.sync(ctx, quiz)
	metrics.QuizTransitions.WithLabelValues("created").Inc()
	s.log.Info().
		Int64("quiz_id", quiz.ID).
		Int64("created_by", actor.UserID).
		Int("questions", len(saved)).
		Float64("total_marks", total).
		Msg("Quiz created")
	return quiz, nil
}

// Update replaces a quiz's fields and its entire question set.
// An empty status keeps the current one; absent max attempts means unlimited.
func (s *QuizService) Update(ctx context.Context, actor model.Actor, id int64, draft model.QuizDraft) (*model.Quiz, error) {
	if !actor.CanAuthor() {
		return nil, ErrForbidden
	}

	quiz, err := s.activeQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureManage(ctx, s.dir, actor, quiz); err != nil {
		return nil, err
	}
	if err := validateQuestions(draft.Questions); err != nil {
		return nil, err
	}

	questions, total := buildQuestions(quiz.ID, draft.Questions)
	quiz.Title = draft.Title
	quiz.Description = draft.Description
	quiz.TimeLimit = draft.TimeLimit
	quiz.MaxAttempts = draft.MaxAttempts
	quiz.TotalMarks = total
	if draft.Status != "" {
		quiz.Status = draft.Status
	}

	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	saved, err := s.questions.ReplaceAll(ctx, quiz.ID, questions)
	if err != nil {
		return nil, fmt.Errorf("replace questions: %w", err)
	}
	quiz.Questions = saved

	s.papers.sync(ctx, quiz)
	metrics.QuizTransitions.WithLabelValues("updated").Inc()
	s.log.Info().
		Int64("quiz_id", quiz.ID).
		Int("questions", len(saved)).
		Float64("total_marks", total).
		Msg("Quiz updated")
	return quiz, nil
}

// Publish makes a quiz available to assigned students. No minimum question count applies.
func (s *QuizService) Publish(ctx context.Context, actor model.Actor, id int64) (*model.Quiz, error) {
	return s.transition(ctx, actor, id, model.QuizStatusPublished, ErrAlreadyPublished, "published")
}

// Unpublish returns a quiz to draft. Fails only when it already is a draft.
func (s *QuizService) Unpublish(ctx context.Context, actor model.Actor, id int64) (*model.Quiz, error) {
	return s.transition(ctx, actor, id, model.QuizStatusDraft, ErrAlreadyDraft, "unpublished")
}

func (s *QuizService) transition(ctx context.Context, actor model.Actor, id int64, target model.QuizStatus, already error, label string) (*model.Quiz, error) {
	if !actor.CanAuthor() {
		return nil, ErrForbidden
	}

	quiz, err := s.activeQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureManage(ctx, s.dir, actor, quiz); err != nil {
		return nil, err
	}
	if quiz.Status == target {
		return nil, already
	}

	if err := s.quizzes.UpdateStatus(ctx, quiz.ID, target); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	quiz.Status = target

	if err := s.reader.attachQuestions(ctx, quiz); err != nil {
		return nil, err
	}
	s.papers.sync(ctx, quiz)

	metrics.QuizTransitions.WithLabelValues(label).Inc()
	s.log.Info().Int64("quiz_id", quiz.ID).Str("status", string(target)).Msg("Quiz " + label)
	return quiz, nil
}

// Delete hard-deletes a quiz nobody has attempted, otherwise deactivates it so
// grading history survives. Reports whether the delete was soft.
func (s *QuizService) Delete(ctx context.Context, actor model.Actor, id int64) (bool, error) {
	if !actor.CanAuthor() {
		return false, ErrForbidden
	}

	quiz, err := s.activeQuiz(ctx, id)
	if err != nil {
		return false, err
	}
	if err := ensureManage(ctx, s.dir, actor, quiz); err != nil {
		return false, err
	}

	attempts, err := s.attempts.CountByQuiz(ctx, quiz.ID)
	if err != nil {
		return false, fmt.Errorf("count attempts: %w", err)
	}

	soft := attempts > 0
	if soft {
		err = s.quizzes.Deactivate(ctx, quiz.ID)
	} else {
		err = s.quizzes.Delete(ctx, quiz.ID)
	}
	if err != nil {
		return false, fmt.Errorf("delete quiz: %w", notFoundAs(err, ErrQuizNotFound))
	}

	s.papers.drop(ctx, quiz.ID)

	label := "hard_deleted"
	if soft {
		label = "soft_deleted"
	}
	metrics.QuizTransitions.WithLabelValues(label).Inc()
	s.log.Info().Int64("quiz_id", quiz.ID).Int("attempts", attempts).Bool("soft", soft).Msg("Quiz deleted")
	return soft, nil
}

// Get returns an active quiz with its questions and answer key.
func (s *QuizService) Get(ctx context.Context, actor model.Actor, id int64) (*model.Quiz, error) {
	if !actor.CanAuthor() {
		return nil, ErrForbidden
	}
	quiz, err := s.activeQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.reader.attachQuestions(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// Paper returns the answer-free paper of an active published quiz.
func (s *QuizService) Paper(ctx context.Context, id int64) (*model.QuizPaper, error) {
	quiz, err := s.activeQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusPublished {
		return nil, ErrQuizNotPublished
	}
	return s.papers.load(ctx, quiz)
}

// ListAll returns active quizzes page by page. Admin only.
func (s *QuizService) ListAll(ctx context.Context, actor model.Actor, page, perPage int) ([]model.Quiz, *response.Pagination, error) {
	if actor.Role != model.RoleAdmin {
		return nil, nil, ErrForbidden
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	type pageResult struct {
		quizzes []model.Quiz
		total   int
	}
	res, err := database.WithRetry(ctx, s.reader.retry, s.log, func(ctx context.Context) (pageResult, error) {
		quizzes, total, err := s.quizzes.ListActivePaginated(ctx, perPage, (page-1)*perPage)
		return pageResult{quizzes: quizzes, total: total}, err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list quizzes: %w", err)
	}

	quizzes := res.quizzes
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}

	return quizzes, response.NewPagination(page, perPage, res.total), nil
}

// ListMine returns the calling teacher's active quizzes with their questions.
func (s *QuizService) ListMine(ctx context.Context, actor model.Actor) ([]model.Quiz, error) {
	if actor.Role != model.RoleTeacher {
		return nil, ErrForbidden
	}
	teacher, err := s.dir.TeacherByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	quizzes, err := database.WithRetry(ctx, s.reader.retry, s.log, func(ctx context.Context) ([]model.Quiz, error) {
		return s.quizzes.ListByTeacher(ctx, teacher.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}

	for i := range quizzes {
		if err := s.reader.attachQuestions(ctx, &quizzes[i]); err != nil {
			return nil, err
		}
	}
	return quizzes, nil
}

// PrewarmPapers caches the paper of every published quiz.
// Run on startup so the first attempt of each quiz is served from Redis.
func (s *QuizService) PrewarmPapers(ctx context.Context) error {
	quizzes, err := s.quizzes.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published quizzes: %w", err)
	}

	if len(quizzes) == 0 {
		s.log.Info().Msg("No published quizzes to prewarm")
		return nil
	}

	warmed := 0
	for i := range quizzes {
		if err := s.reader.attachQuestions(ctx, &quizzes[i]); err != nil {
			s.log.Warn().Err(err).Int64("quiz_id", quizzes[i].ID).Msg("Failed to warm quiz paper, skipping")
			continue
		}
		s.papers.sync(ctx, &quizzes[i])
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(quizzes)).
		Msg("Paper prewarm complete")
	return nil
}

// activeQuiz loads a quiz and hides soft-deleted ones.
func (s *QuizService) activeQuiz(ctx context.Context, id int64) (*model.Quiz, error) {
	quiz, err := s.reader.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}
