package model

import "time"

// Role is the marketplace role attached to every user account.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User represents an account that can log in.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Student is the student profile owned by a user.
type Student struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	SchoolGrade string `json:"school_grade,omitempty"`
	Level       string `json:"level,omitempty"`
	User        *User  `json:"user,omitempty"`
}

// Teacher is the teacher profile owned by a user.
type Teacher struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	Subject string `json:"subject,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// Actor identifies who is performing an operation. It is resolved from the
// JWT once per request and passed explicitly into every service call.
type Actor struct {
	UserID int64
	Role   Role
}

// CanAuthor reports whether the actor may create and manage quizzes.
func (a Actor) CanAuthor() bool {
	return a.Role == RoleTeacher || a.Role == RoleAdmin
}

// LoginRequest is the payload for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Profile is the authenticated user with the profile matching their role.
type Profile struct {
	User    User     `json:"user"`
	Student *Student `json:"student,omitempty"`
	Teacher *Teacher `json:"teacher,omitempty"`
}
