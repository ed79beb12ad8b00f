package model

import "strings"

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeEssay          QuestionType = "essay"
)

// QuestionTypes lists every valid type in display order.
var QuestionTypes = []QuestionType{
	QuestionTypeMultipleChoice,
	QuestionTypeTrueFalse,
	QuestionTypeShortAnswer,
	QuestionTypeEssay,
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AutoGraded reports whether answers of this type are scored on submission.
func (t QuestionType) AutoGraded() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Question represents a single quiz question.
type Question struct {
	ID            int64        `json:"id"`
	QuizID        int64        `json:"quiz_id"`
	Text          string       `json:"question"`
	Type          QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Explanation   string       `json:"correct_answer_explanation,omitempty"`
	Marks         float64      `json:"marks"`
	OrderIndex    int          `json:"order_index"`
}

// QuestionInput is one question as submitted by an author.
type QuestionInput struct {
	Question      string       `json:"question"`
	QuestionType  QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"correct_answer_explanation"`
	Marks         float64      `json:"marks"`
}

// ToQuestion normalises the input into a Question at position index.
func (in QuestionInput) ToQuestion(quizID int64, index int) Question {
	options := in.Options
	if options == nil {
		options = []string{}
	}
	return Question{
		QuizID:        quizID,
		Text:          strings.TrimSpace(in.Question),
		Type:          in.QuestionType,
		Options:       options,
		CorrectAnswer: strings.TrimSpace(in.CorrectAnswer),
		Explanation:   strings.TrimSpace(in.Explanation),
		Marks:         in.Marks,
		OrderIndex:    index,
	}
}
