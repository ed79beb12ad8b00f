package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorlink/tutorlink-backend/internal/model"
)

const quizColumns = `id, title, description, time_limit, max_attempts, status, is_active,
	teacher_id, created_by, total_marks, created_at, updated_at`

// QuizRepository handles quiz data access. Questions are loaded separately.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

// GetByID retrieves a quiz regardless of its active flag.
func (r *QuizRepository) GetByID(ctx context.Context, id int64) (*model.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
}

// Create inserts a new quiz.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (title, description, time_limit, max_attempts, status, is_active,
		                      teacher_id, created_by, total_marks)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		q.Title, q.Description, q.TimeLimit, q.MaxAttempts, q.Status, q.IsActive,
		q.TeacherID, q.CreatedBy, q.TotalMarks,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update overwrites the quiz header fields and total marks.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE quizzes
		 SET title = $1, description = $2, time_limit = $3, max_attempts = $4,
		     status = $5, total_marks = $6, updated_at = NOW()
		 WHERE id = $7
		 RETURNING updated_at`,
		q.Title, q.Description, q.TimeLimit, q.MaxAttempts, q.Status, q.TotalMarks, q.ID,
	).Scan(&q.UpdatedAt)
	return translate(err)
}

// UpdateStatus changes a quiz's status.
func (r *QuizRepository) UpdateStatus(ctx context.Context, id int64, status model.QuizStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a quiz, keeping its attempt history.
func (r *QuizRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete hard-deletes a quiz. Questions and assignments cascade.
func (r *QuizRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActivePaginated returns active quizzes, newest first.
func (r *QuizRepository) ListActivePaginated(ctx context.Context, limit, offset int) ([]model.Quiz, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quizzes WHERE is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE is_active
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	quizzes, err := collectQuizzes(rows)
	return quizzes, total, err
}

// ListByTeacher returns a teacher's active quizzes, newest first.
func (r *QuizRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE teacher_id = $1 AND is_active
		 ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, err
	}
	return collectQuizzes(rows)
}

// ListPublished returns every active published quiz.
// Used for paper cache prewarming on startup.
func (r *QuizRepository) ListPublished(ctx context.Context) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE status = $1 AND is_active
		 ORDER BY id`, model.QuizStatusPublished)
	if err != nil {
		return nil, err
	}
	return collectQuizzes(rows)
}

func collectQuizzes(rows pgx.Rows) ([]model.Quiz, error) {
	defer rows.Close()

	quizzes := []model.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, rows.Err()
}

func scanQuiz(row pgx.Row) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := row.Scan(&q.ID, &q.Title, &q.Description, &q.TimeLimit, &q.MaxAttempts, &q.Status, &q.IsActive,
		&q.TeacherID, &q.CreatedBy, &q.TotalMarks, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return q, nil
}
