package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorlink/tutorlink-backend/internal/model"
)

const teacherSelect = `SELECT t.id, t.user_id, t.subject,
	       u.id, u.email, u.first_name, u.last_name, u.role, u.created_at, u.updated_at
	FROM teachers t
	JOIN users u ON u.id = t.user_id`

// TeacherRepository handles teacher profile data access.
type TeacherRepository struct {
	pool *pgxpool.Pool
}

// NewTeacherRepository creates a new TeacherRepository.
func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

// GetByID retrieves a teacher with its user account.
func (r *TeacherRepository) GetByID(ctx context.Context, id int64) (*model.Teacher, error) {
	return scanTeacher(r.pool.QueryRow(ctx, teacherSelect+` WHERE t.id = $1`, id))
}

// GetByUserID retrieves the teacher profile owned by a user.
func (r *TeacherRepository) GetByUserID(ctx context.Context, userID int64) (*model.Teacher, error) {
	return scanTeacher(r.pool.QueryRow(ctx, teacherSelect+` WHERE t.user_id = $1`, userID))
}

// Create inserts a teacher profile for an existing user.
func (r *TeacherRepository) Create(ctx context.Context, t *model.Teacher) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO teachers (user_id, subject) VALUES ($1, $2) RETURNING id`,
		t.UserID, t.Subject,
	).Scan(&t.ID)
	return translate(err)
}

func scanTeacher(row pgx.Row) (*model.Teacher, error) {
	t := &model.Teacher{User: &model.User{}}
	err := row.Scan(&t.ID, &t.UserID, &t.Subject,
		&t.User.ID, &t.User.Email, &t.User.FirstName, &t.User.LastName, &t.User.Role,
		&t.User.CreatedAt, &t.User.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return t, nil
}
