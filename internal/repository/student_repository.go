package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorlink/tutorlink-backend/internal/model"
)

const studentSelect = `SELECT s.id, s.user_id, s.school_grade, s.level,
	       u.id, u.email, u.first_name, u.last_name, u.role, u.created_at, u.updated_at
	FROM students s
	JOIN users u ON u.id = s.user_id`

// StudentRepository handles student profile data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student with its user account.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx, studentSelect+` WHERE s.id = $1`, id))
}

// GetByUserID retrieves the student profile owned by a user.
func (r *StudentRepository) GetByUserID(ctx context.Context, userID int64) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx, studentSelect+` WHERE s.user_id = $1`, userID))
}

// ListByIDs returns the students among ids that exist. Missing IDs are simply absent.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []int64) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx, studentSelect+` WHERE s.id = ANY($1) ORDER BY s.id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// Create inserts a student profile for an existing user.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (user_id, school_grade, level) VALUES ($1, $2, $3) RETURNING id`,
		s.UserID, s.SchoolGrade, s.Level,
	).Scan(&s.ID)
	return translate(err)
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	s := &model.Student{User: &model.User{}}
	err := row.Scan(&s.ID, &s.UserID, &s.SchoolGrade, &s.Level,
		&s.User.ID, &s.User.Email, &s.User.FirstName, &s.User.LastName, &s.User.Role,
		&s.User.CreatedAt, &s.User.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}
