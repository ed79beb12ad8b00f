package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorlink/tutorlink-backend/internal/model"
)

const assignmentColumns = `a.id, a.quiz_id, a.student_id, a.assigned_by, a.assigned_at, a.due_date, a.status, a.attempts`

// AssignmentRepository handles quiz assignment data access.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// GetByID retrieves an assignment.
func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*model.Assignment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM quiz_assignments a WHERE a.id = $1`, id)
	return scanAssignment(row)
}

// GetByQuizAndStudent retrieves the unique assignment of a quiz to a student.
func (r *AssignmentRepository) GetByQuizAndStudent(ctx context.Context, quizID, studentID int64) (*model.Assignment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM quiz_assignments a WHERE a.quiz_id = $1 AND a.student_id = $2`,
		quizID, studentID)
	return scanAssignment(row)
}

// AssignedStudentIDs returns which of studentIDs already hold an assignment for the quiz.
func (r *AssignmentRepository) AssignedStudentIDs(ctx context.Context, quizID int64, studentIDs []int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id FROM quiz_assignments WHERE quiz_id = $1 AND student_id = ANY($2)`,
		quizID, studentIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// CreateMany inserts assignments in one transaction and fills in IDs and timestamps.
func (r *AssignmentRepository) CreateMany(ctx context.Context, assignments []model.Assignment) ([]model.Assignment, error) {
	if len(assignments) == 0 {
		return assignments, nil
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range assignments {
			batch.Queue(
				`INSERT INTO quiz_assignments (quiz_id, student_id, assigned_by, due_date, status)
				 VALUES ($1, $2, $3, $4, $5)
				 RETURNING id, assigned_at, attempts`,
				a.QuizID, a.StudentID, a.AssignedBy, a.DueDate, a.Status,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for i := range assignments {
			if err := br.QueryRow().Scan(&assignments[i].ID, &assignments[i].AssignedAt, &assignments[i].Attempts); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert assignment for student %d: %w", assignments[i].StudentID, translate(err))
			}
		}
		return br.Close()
	})
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListByQuiz returns a quiz's assignments with student profiles, newest first.
func (r *AssignmentRepository) ListByQuiz(ctx context.Context, quizID int64) ([]model.Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assignmentColumns+`,
		        s.id, s.user_id, s.school_grade, s.level,
		        u.id, u.email, u.first_name, u.last_name, u.role, u.created_at, u.updated_at
		 FROM quiz_assignments a
		 JOIN students s ON s.id = a.student_id
		 JOIN users u ON u.id = s.user_id
		 WHERE a.quiz_id = $1
		 ORDER BY a.assigned_at DESC, a.id DESC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []model.Assignment{}
	for rows.Next() {
		var a model.Assignment
		s := &model.Student{User: &model.User{}}
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.AssignedBy, &a.AssignedAt, &a.DueDate, &a.Status, &a.Attempts,
			&s.ID, &s.UserID, &s.SchoolGrade, &s.Level,
			&s.User.ID, &s.User.Email, &s.User.FirstName, &s.User.LastName, &s.User.Role,
			&s.User.CreatedAt, &s.User.UpdatedAt); err != nil {
			return nil, err
		}
		a.Student = s
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ListForStudent returns a student's assignments of active, published quizzes that have questions.
func (r *AssignmentRepository) ListForStudent(ctx context.Context, studentID int64) ([]model.AssignedQuiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assignmentColumns+`,
		        q.id, q.title, q.description, q.time_limit, q.max_attempts, q.status, q.is_active,
		        q.teacher_id, q.created_by, q.total_marks, q.created_at, q.updated_at,
		        qc.question_count,
		        COALESCE(TRIM(tu.first_name || ' ' || tu.last_name), '')
		 FROM quiz_assignments a
		 JOIN quizzes q ON q.id = a.quiz_id
		 JOIN LATERAL (SELECT COUNT(*) AS question_count FROM quiz_questions qq WHERE qq.quiz_id = q.id) qc ON TRUE
		 LEFT JOIN teachers t ON t.id = q.teacher_id
		 LEFT JOIN users tu ON tu.id = t.user_id
		 WHERE a.student_id = $1 AND q.is_active AND q.status = $2 AND qc.question_count > 0
		 ORDER BY a.assigned_at DESC, a.id DESC`, studentID, model.QuizStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assigned := []model.AssignedQuiz{}
	for rows.Next() {
		var aq model.AssignedQuiz
		q := &model.Quiz{}
		a := &aq.Assignment
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.AssignedBy, &a.AssignedAt, &a.DueDate, &a.Status, &a.Attempts,
			&q.ID, &q.Title, &q.Description, &q.TimeLimit, &q.MaxAttempts, &q.Status, &q.IsActive,
			&q.TeacherID, &q.CreatedBy, &q.TotalMarks, &q.CreatedAt, &q.UpdatedAt,
			&aq.QuestionCount, &aq.TeacherName); err != nil {
			return nil, err
		}
		a.Quiz = q
		assigned = append(assigned, aq)
	}
	return assigned, rows.Err()
}

// CountByQuiz returns how many assignments a quiz has.
func (r *AssignmentRepository) CountByQuiz(ctx context.Context, quizID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quiz_assignments WHERE quiz_id = $1`, quizID).Scan(&n)
	return n, err
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quiz_assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordStart increments the attempt counter and moves the assignment to in_progress.
func (r *AssignmentRepository) RecordStart(ctx context.Context, a *model.Assignment) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE quiz_assignments SET attempts = attempts + 1, status = $1
		 WHERE id = $2
		 RETURNING attempts, status`,
		model.AssignmentStatusInProgress, a.ID,
	).Scan(&a.Attempts, &a.Status)
	return translate(err)
}

// UpdateStatus changes an assignment's status.
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id int64, status model.AssignmentStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE quiz_assignments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetAttempts deletes every attempt of an assignment and returns it to the assigned state.
func (r *AssignmentRepository) ResetAttempts(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM quiz_attempts WHERE assignment_id = $1`, id); err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}
		tag, err := tx.Exec(ctx,
			`UPDATE quiz_assignments SET attempts = 0, status = $1 WHERE id = $2`,
			model.AssignmentStatusAssigned, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// MarkOverdue flips open assignments whose due date is before now to overdue.
func (r *AssignmentRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_assignments SET status = $1
		 WHERE due_date IS NOT NULL AND due_date < $2 AND status IN ($3, $4)`,
		model.AssignmentStatusOverdue, now, model.AssignmentStatusAssigned, model.AssignmentStatusInProgress)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAssignment(row pgx.Row) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := row.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.AssignedBy, &a.AssignedAt, &a.DueDate, &a.Status, &a.Attempts)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}
