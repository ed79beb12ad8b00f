package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorlink/tutorlink-backend/internal/model"
)

const attemptColumns = `id, assignment_id, student_id, max_score, started_at, submitted_at,
	answers, score, time_taken, status`

// AttemptRepository handles quiz attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// GetByID retrieves an attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id int64) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts WHERE id = $1`, id))
}

// Create inserts a started attempt.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	if a.Answers == nil {
		a.Answers = model.Answers{}
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}
	// time_taken on submit is measured from this value.
	return r.pool.QueryRow(ctx,
		`INSERT INTO quiz_attempts (assignment_id, student_id, max_score, started_at, answers, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		a.AssignmentID, a.StudentID, a.MaxScore, a.StartedAt, a.Answers, a.Status,
	).Scan(&a.ID)
}

// Submit stores the graded answers. It only matches attempts not yet submitted,
// returning ErrStaleWrite otherwise so a double submit cannot overwrite a score.
func (r *AttemptRepository) Submit(ctx context.Context, a *model.Attempt) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_attempts
		 SET submitted_at = $1, answers = $2, score = $3, time_taken = $4, status = $5
		 WHERE id = $6 AND submitted_at IS NULL`,
		a.SubmittedAt, a.Answers, a.Score, a.TimeTaken, a.Status, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleWrite
	}
	return nil
}

// SaveGrades stores manually graded answers and the new score.
func (r *AttemptRepository) SaveGrades(ctx context.Context, a *model.Attempt) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_attempts SET answers = $1, score = $2, status = $3 WHERE id = $4`,
		a.Answers, a.Score, a.Status, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByQuiz returns how many attempts exist across all assignments of a quiz.
func (r *AttemptRepository) CountByQuiz(ctx context.Context, quizID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_attempts t
		 JOIN quiz_assignments a ON a.id = t.assignment_id
		 WHERE a.quiz_id = $1`, quizID).Scan(&n)
	return n, err
}

// ListFinishedByStudent returns a student's submitted or graded attempts, latest first.
func (r *AttemptRepository) ListFinishedByStudent(ctx context.Context, studentID int64) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts
		 WHERE student_id = $1 AND status IN ($2, $3)
		 ORDER BY submitted_at DESC, id DESC`,
		studentID, model.AttemptStatusSubmitted, model.AttemptStatusGraded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []model.Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// LatestFinished returns the most recently submitted attempt of an assignment.
func (r *AttemptRepository) LatestFinished(ctx context.Context, assignmentID int64) (*model.Attempt, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts
		 WHERE assignment_id = $1 AND status IN ($2, $3)
		 ORDER BY submitted_at DESC, id DESC
		 LIMIT 1`,
		assignmentID, model.AttemptStatusSubmitted, model.AttemptStatusGraded)
	return scanAttempt(row)
}

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(&a.ID, &a.AssignmentID, &a.StudentID, &a.MaxScore, &a.StartedAt, &a.SubmittedAt,
		&a.Answers, &a.Score, &a.TimeTaken, &a.Status)
	if err != nil {
		return nil, translate(err)
	}
	if a.Answers == nil {
		a.Answers = model.Answers{}
	}
	return a, nil
}
