package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/database"
	"github.com/tutorlink/tutorlink-backend/internal/metrics"
	"github.com/tutorlink/tutorlink-backend/internal/model"
	"github.com/tutorlink/tutorlink-backend/internal/repository"
)

// quizReader loads quizzes through the read retry wrapper.
type quizReader struct {
	quizzes   QuizStore
	questions QuestionStore
	retry     database.RetryPolicy
	log       zerolog.Logger
}

// get loads a quiz header, active or not.
func (r quizReader) get(ctx context.Context, id int64) (*model.Quiz, error) {
	q, err := database.WithRetry(ctx, r.retry, r.log, func(ctx context.Context) (*model.Quiz, error) {
		return r.quizzes.GetByID(ctx, id)
	})
	return q, notFoundAs(err, ErrQuizNotFound)
}

// getWithQuestions loads a quiz header and its ordered questions.
func (r quizReader) getWithQuestions(ctx context.Context, id int64) (*model.Quiz, error) {
	q, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.attachQuestions(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (r quizReader) attachQuestions(ctx context.Context, q *model.Quiz) error {
	questions, err := database.WithRetry(ctx, r.retry, r.log, func(ctx context.Context) ([]model.Question, error) {
		return r.questions.ListByQuiz(ctx, q.ID)
	})
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	q.Questions = questions
	return nil
}

// ─── Ownership ─────────────────────────────────────────────────────────

// ensureManage allows the owning teacher, or the admin who created the quiz.
func ensureManage(ctx context.Context, dir Directory, actor model.Actor, q *model.Quiz) error {
	switch actor.Role {
	case model.RoleTeacher:
		return ensureOwningTeacher(ctx, dir, actor, q)
	case model.RoleAdmin:
		if q.CreatedBy != actor.UserID {
			return ErrNotQuizOwner
		}
		return nil
	default:
		return ErrForbidden
	}
}

// ensureOversee allows any admin, or the owning teacher.
func ensureOversee(ctx context.Context, dir Directory, actor model.Actor, q *model.Quiz) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleTeacher:
		return ensureOwningTeacher(ctx, dir, actor, q)
	default:
		return ErrForbidden
	}
}

func ensureOwningTeacher(ctx context.Context, dir Directory, actor model.Actor, q *model.Quiz) error {
	if actor.Role != model.RoleTeacher {
		return ErrForbidden
	}
	teacher, err := dir.TeacherByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, ErrTeacherNotFound) {
			return ErrForbidden
		}
		return err
	}
	if q.TeacherID == nil || *q.TeacherID != teacher.ID {
		return ErrNotQuizOwner
	}
	return nil
}

// ─── Paper cache ───────────────────────────────────────────────────────

// paperSource serves student papers from the cache and rebuilds them from
// PostgreSQL on a miss. Cache failures never fail the caller.
type paperSource struct {
	reader quizReader
	cache  PaperCache
	log    zerolog.Logger
}

func (p paperSource) load(ctx context.Context, q *model.Quiz) (*model.QuizPaper, error) {
	paper, err := p.cache.Get(ctx, q.ID)
	switch {
	case err == nil:
		metrics.PaperCacheLookups.WithLabelValues("hit").Inc()
		return paper, nil
	case errors.Is(err, repository.ErrNotFound):
		metrics.PaperCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.PaperCacheLookups.WithLabelValues("error").Inc()
		p.log.Warn().Err(err).Int64("quiz_id", q.ID).Msg("Paper cache read failed, falling back to database")
	}

	if q.Questions == nil {
		if err := p.reader.attachQuestions(ctx, q); err != nil {
			return nil, err
		}
	}
	paper = model.NewQuizPaper(q)
	p.store(ctx, paper)
	return paper, nil
}

// sync writes the paper for an active published quiz and drops it otherwise.
func (p paperSource) sync(ctx context.Context, q *model.Quiz) {
	if q.IsActive && q.Status == model.QuizStatusPublished {
		p.store(ctx, model.NewQuizPaper(q))
		return
	}
	p.drop(ctx, q.ID)
}

func (p paperSource) store(ctx context.Context, paper *model.QuizPaper) {
	if err := p.cache.Set(ctx, paper); err != nil {
		p.log.Warn().Err(err).Int64("quiz_id", paper.QuizID).Msg("Failed to cache quiz paper")
	}
}

func (p paperSource) drop(ctx context.Context, quizID int64) {
	if err := p.cache.Delete(ctx, quizID); err != nil {
		p.log.Warn().Err(err).Int64("quiz_id", quizID).Msg("Failed to invalidate quiz paper")
	}
}
