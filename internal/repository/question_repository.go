package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorlink/tutorlink-backend/internal/model"
)

// QuestionRepository handles quiz question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByQuiz returns a quiz's questions ordered by order_index.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID int64) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, question, question_type, options, correct_answer,
		        correct_answer_explanation, marks, order_index
		 FROM quiz_questions WHERE quiz_id = $1
		 ORDER BY order_index, id`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.Type, &q.Options, &q.CorrectAnswer,
			&q.Explanation, &q.Marks, &q.OrderIndex); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CreateMany inserts questions for a quiz in one transaction and fills in their IDs.
func (r *QuestionRepository) CreateMany(ctx context.Context, quizID int64, questions []model.Question) ([]model.Question, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return insertQuestions(ctx, tx, quizID, questions)
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// ReplaceAll deletes every question of a quiz and inserts the new set atomically.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, quizID int64, questions []model.Question) ([]model.Question, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM quiz_questions WHERE quiz_id = $1`, quizID); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		return insertQuestions(ctx, tx, quizID, questions)
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func insertQuestions(ctx context.Context, tx pgx.Tx, quizID int64, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range questions {
		q := &questions[i]
		q.QuizID = quizID
		if q.Options == nil {
			q.Options = []string{}
		}
		batch.Queue(
			`INSERT INTO quiz_questions
			   (quiz_id, question, question_type, options, correct_answer,
			    correct_answer_explanation, marks, order_index)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id`,
			quizID, q.Text, q.Type, q.Options, q.CorrectAnswer, q.Explanation, q.Marks, q.OrderIndex,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range questions {
		if err := br.QueryRow().Scan(&questions[i].ID); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}
	return br.Close()
}
