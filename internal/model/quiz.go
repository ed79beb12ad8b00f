package model

import "time"

// QuizStatus enumerates the lifecycle states of a quiz.
type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "draft"
	QuizStatusPublished QuizStatus = "published"
	QuizStatusArchived  QuizStatus = "archived"
)

// Quiz represents a quiz authored by a teacher or an admin.
type Quiz struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// TimeLimit is in minutes; nil means untimed.
	TimeLimit *int `json:"time_limit"`
	// MaxAttempts of nil means unlimited attempts per assignment.
	MaxAttempts *int       `json:"max_attempts"`
	Status      QuizStatus `json:"status"`
	IsActive    bool       `json:"is_active"`
	// TeacherID is nil for admin-authored quizzes.
	TeacherID  *int64     `json:"teacher_id"`
	CreatedBy  int64      `json:"created_by"`
	TotalMarks float64    `json:"total_marks"`
	Questions  []Question `json:"questions"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// HasEssay reports whether any question needs manual grading before the attempt is final.
func (q *Quiz) HasEssay() bool {
	for _, question := range q.Questions {
		if question.Type == QuestionTypeEssay {
			return true
		}
	}
	return false
}

// UpsertQuizRequest is the payload for creating or fully replacing a quiz.
// Question contents are validated by the quiz service so failures can name the question index.
type UpsertQuizRequest struct {
	Title       string          `json:"title" binding:"required,notblank,max=255"`
	Description string          `json:"description" binding:"omitempty,max=5000"`
	Status      QuizStatus      `json:"status" binding:"omitempty,oneof=draft published archived"`
	TimeLimit   *int            `json:"time_limit" binding:"omitempty,min=1,max=1440"`
	MaxAttempts *int            `json:"max_attempts" binding:"omitempty,min=1,max=100"`
	Questions   []QuestionInput `json:"questions"`
}

// QuizDraft is the service-level input for create and update.
type QuizDraft struct {
	Title       string
	Description string
	Status      QuizStatus
	TimeLimit   *int
	MaxAttempts *int
	Questions   []QuestionInput
}

// Draft converts the request into a service input.
func (r UpsertQuizRequest) Draft() QuizDraft {
	return QuizDraft{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		TimeLimit:   r.TimeLimit,
		MaxAttempts: r.MaxAttempts,
		Questions:   r.Questions,
	}
}

// QuizPaper is the student-facing copy of a published quiz, cached in Redis.
// It never carries correct answers or explanations.
type QuizPaper struct {
	QuizID      int64           `json:"quiz_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	TimeLimit   *int            `json:"time_limit"`
	TotalMarks  float64         `json:"total_marks"`
	Questions   []PaperQuestion `json:"questions"`
}

// PaperQuestion is a question without its answer key.
type PaperQuestion struct {
	ID         int64        `json:"id"`
	Text       string       `json:"question"`
	Type       QuestionType `json:"question_type"`
	Options    []string     `json:"options"`
	Marks      float64      `json:"marks"`
	OrderIndex int          `json:"order_index"`
}

// NewQuizPaper strips the answer key from q.
func NewQuizPaper(q *Quiz) *QuizPaper {
	questions := make([]PaperQuestion, len(q.Questions))
	for i, question := range q.Questions {
		options := question.Options
		if options == nil {
			options = []string{}
		}
		questions[i] = PaperQuestion{
			ID:         question.ID,
			Text:       question.Text,
			Type:       question.Type,
			Options:    options,
			Marks:      question.Marks,
			OrderIndex: question.OrderIndex,
		}
	}
	return &QuizPaper{
		QuizID:      q.ID,
		Title:       q.Title,
		Description: q.Description,
		TimeLimit:   q.TimeLimit,
		TotalMarks:  q.TotalMarks,
		Questions:   questions,
	}
}
