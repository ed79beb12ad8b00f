package model

import "time"

// AssignmentStatus enumerates the states of a quiz assignment.
type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusOverdue    AssignmentStatus = "overdue"
)

// Assignment links one quiz to one student.
type Assignment struct {
	ID         int64            `json:"id"`
	QuizID     int64            `json:"quiz_id"`
	StudentID  int64            `json:"student_id"`
	AssignedBy int64            `json:"assigned_by"`
	AssignedAt time.Time        `json:"assigned_at"`
	DueDate    *time.Time       `json:"due_date"`
	Status     AssignmentStatus `json:"status"`
	Attempts   int              `json:"attempts"`
	Quiz       *Quiz            `json:"quiz,omitempty"`
	Student    *Student         `json:"student,omitempty"`
}

// PastDue reports whether the due date is set and before now.
func (a *Assignment) PastDue(now time.Time) bool {
	return a.DueDate != nil && now.After(*a.DueDate)
}

// AssignQuizRequest is the payload for assigning a quiz to students.
type AssignQuizRequest struct {
	StudentIDs []int64    `json:"student_ids" binding:"required,min=1,dive,gt=0"`
	DueDate    *time.Time `json:"due_date" binding:"omitempty"`
}

// RemoveAssignmentResult reports the side effects of removing an assignment.
type RemoveAssignmentResult struct {
	Message           string `json:"message"`
	QuizRevertedDraft bool   `json:"quiz_reverted_to_draft"`
}

// AssignedQuiz is a student's view of an assignment of a published quiz.
type AssignedQuiz struct {
	Assignment
	QuestionCount int    `json:"question_count"`
	TeacherName   string `json:"teacher_name,omitempty"`
}

// ResetAttemptsResult is returned after clearing an assignment's attempts.
type ResetAttemptsResult struct {
	Message  string `json:"message"`
	Attempts int    `json:"attempts"`
}
