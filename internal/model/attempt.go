package model

import "time"

// AttemptStatus enumerates the states of a quiz attempt.
type AttemptStatus string

const (
	AttemptStatusStarted   AttemptStatus = "started"
	AttemptStatusSubmitted AttemptStatus = "submitted"
	AttemptStatusGraded    AttemptStatus = "graded"
)

// AnswerRecord is the stored outcome for one question of an attempt.
type AnswerRecord struct {
	StudentAnswer string  `json:"student_answer"`
	CorrectAnswer string  `json:"correct_answer,omitempty"`
	Marks         float64 `json:"marks"`
}

// Answers maps a question ID (decimal string) to its recorded outcome.
type Answers map[string]AnswerRecord

// Attempt is one student's run through a quiz.
type Attempt struct {
	ID           int64         `json:"id"`
	AssignmentID int64         `json:"assignment_id"`
	StudentID    int64         `json:"student_id"`
	MaxScore     float64       `json:"max_score"`
	StartedAt    time.Time     `json:"started_at"`
	SubmittedAt  *time.Time    `json:"submitted_at"`
	Answers      Answers       `json:"answers"`
	Score        float64       `json:"score"`
	TimeTaken    int           `json:"time_taken"`
	Status       AttemptStatus `json:"status"`
}

// Finished reports whether the attempt has been submitted.
func (a *Attempt) Finished() bool {
	return a.Status == AttemptStatusSubmitted || a.Status == AttemptStatusGraded
}

// Percentage is the score as a rounded percentage of the max score.
func (a *Attempt) Percentage() int {
	if a.MaxScore <= 0 {
		return 0
	}
	return int(a.Score/a.MaxScore*100 + 0.5)
}

// SubmitQuizRequest is the payload for submitting answers: question ID → answer.
type SubmitQuizRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

// GradeRequest is the payload for manual grading: question ID → awarded marks.
type GradeRequest struct {
	Grades map[string]float64 `json:"grades" binding:"required,min=1"`
}

// StartedAttempt is returned when an attempt starts, with the paper to answer.
type StartedAttempt struct {
	Attempt    Attempt    `json:"attempt"`
	Assignment Assignment `json:"assignment"`
	Paper      *QuizPaper `json:"paper"`
}

// QuizSummary is the quiz header shown next to attempt results.
type QuizSummary struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	TotalMarks    float64 `json:"total_marks"`
	TimeLimit     *int    `json:"time_limit,omitempty"`
	QuestionCount int     `json:"question_count"`
	TeacherName   string  `json:"teacher_name,omitempty"`
	TeacherEmail  string  `json:"teacher_email,omitempty"`
}

// AssignmentSummary is the assignment header shown next to attempt results.
type AssignmentSummary struct {
	ID         int64      `json:"id"`
	AssignedAt time.Time  `json:"assigned_at"`
	DueDate    *time.Time `json:"due_date"`
}

// AttemptSummary is one row of a student's attempt history.
type AttemptSummary struct {
	ID          int64             `json:"id"`
	Score       float64           `json:"score"`
	MaxScore    float64           `json:"max_score"`
	Percentage  int               `json:"percentage"`
	SubmittedAt *time.Time        `json:"submitted_at"`
	TimeTaken   int               `json:"time_taken"`
	Status      AttemptStatus     `json:"status"`
	Quiz        QuizSummary       `json:"quiz"`
	Assignment  AssignmentSummary `json:"assignment"`
}

// QuestionReview is one question of a finished attempt with the student's outcome.
type QuestionReview struct {
	ID            int64        `json:"id"`
	Text          string       `json:"question"`
	Type          QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	Marks         float64      `json:"marks"`
	StudentAnswer string       `json:"student_answer"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Explanation   string       `json:"correct_answer_explanation,omitempty"`
	IsCorrect     bool         `json:"is_correct"`
	PointsEarned  float64      `json:"points_earned"`
}

// AttemptReview is the full per-question review of a finished attempt.
type AttemptReview struct {
	AttemptSummary
	Questions []QuestionReview `json:"questions"`
}

// QuizResult is one row of the teacher's results roster for a quiz.
type QuizResult struct {
	ID           int64            `json:"id"`
	AssignmentID int64            `json:"assignment_id"`
	StudentID    int64            `json:"student_id"`
	StudentName  string           `json:"student_name"`
	StudentEmail string           `json:"student_email"`
	AssignedAt   time.Time        `json:"assigned_at"`
	DueDate      *time.Time       `json:"due_date"`
	Status       AssignmentStatus `json:"status"`
	AttemptCount int              `json:"attempt_count"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	SubmittedAt  *time.Time       `json:"submitted_at,omitempty"`
	Score        *float64         `json:"score,omitempty"`
	MaxScore     float64          `json:"max_score"`
	TimeTaken    *int             `json:"time_taken,omitempty"`
	Answers      Answers          `json:"answers"`
	Graded       bool             `json:"graded"`
}
