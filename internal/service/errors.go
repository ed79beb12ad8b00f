package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Domain errors. Handlers map these onto response codes.
var (
	ErrForbidden          = errors.New("action not allowed for this role")
	ErrNotQuizOwner       = errors.New("not the owner of this quiz")
	ErrNotAttemptOwner    = errors.New("attempt belongs to another student")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrUserNotFound       = errors.New("user not found")

	ErrAlreadyPublished    = errors.New("quiz is already published")
	ErrAlreadyDraft        = errors.New("quiz is already a draft")
	ErrAllStudentsAssigned = errors.New("all selected students already have assignments for this quiz")
	ErrAssignmentAttempted = errors.New("student has already attempted this quiz")
	ErrQuizNotPublished    = errors.New("quiz is not published")
	ErrAttemptsExhausted   = errors.New("maximum number of attempts reached")
	ErrDueDatePassed       = errors.New("quiz due date has passed")
	ErrAlreadySubmitted    = errors.New("attempt has already been submitted")
	ErrAttemptNotSubmitted = errors.New("attempt has not been submitted")
	ErrInvalidGrade        = errors.New("invalid grade")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// QuestionError reports the first invalid question of a create or update call.
type QuestionError struct {
	// Index is zero-based; messages use one-based numbering.
	Index  int
	Field  string
	Reason string
}

func (e *QuestionError) Error() string {
	return fmt.Sprintf("question %d %s", e.Index+1, e.Reason)
}

// MissingStudentsError lists requested student IDs that do not exist.
type MissingStudentsError struct {
	IDs []int64
}

func (e *MissingStudentsError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return "students not found: " + strings.Join(ids, ", ")
}
