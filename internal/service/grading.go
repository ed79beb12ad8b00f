package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tutorlink/tutorlink-backend/internal/model"
)

// validateQuestions checks every question before anything is persisted.
func validateQuestions(inputs []model.QuestionInput) error {
	for i, in := range inputs {
		switch {
		case strings.TrimSpace(in.Question) == "":
			return &QuestionError{Index: i, Field: "question", Reason: "is missing question text"}
		case !in.QuestionType.Valid():
			return &QuestionError{Index: i, Field: "question_type", Reason: "has invalid question type, must be one of: " + questionTypeList()}
		case in.QuestionType.AutoGraded() && strings.TrimSpace(in.CorrectAnswer) == "":
			return &QuestionError{Index: i, Field: "correct_answer", Reason: fmt.Sprintf("must have a correct answer for %s questions", in.QuestionType)}
		case math.IsNaN(in.Marks) || in.Marks <= 0:
			return &QuestionError{Index: i, Field: "marks", Reason: "must have marks greater than 0"}
		case !wholeCents(in.Marks):
			return &QuestionError{Index: i, Field: "marks", Reason: "must have marks with at most 2 decimal places"}
		}
	}
	return nil
}

// wholeCents reports whether v has at most two decimal places, the precision
// marks and scores are stored with.
func wholeCents(v float64) bool {
	cents := v * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

// roundCents rounds v to two decimal places.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func questionTypeList() string {
	names := make([]string, len(model.QuestionTypes))
	for i, t := range model.QuestionTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// buildQuestions converts validated inputs into ordered questions and their mark total.
func buildQuestions(quizID int64, inputs []model.QuestionInput) ([]model.Question, float64) {
	questions := make([]model.Question, len(inputs))
	var total float64
	for i, in := range inputs {
		questions[i] = in.ToQuestion(quizID, i)
		total += in.Marks
	}
	return questions, roundCents(total)
}

// CheckAnswer reports whether answer is correct for q. Multiple choice and
// true/false compare exactly, short answers ignore case and surrounding space,
// and essays are never correct.
func CheckAnswer(q model.Question, answer string) bool {
	if answer == "" {
		return false
	}
	switch q.Type {
	case model.QuestionTypeMultipleChoice, model.QuestionTypeTrueFalse:
		return answer == q.CorrectAnswer
	case model.QuestionTypeShortAnswer:
		return strings.ToLower(strings.TrimSpace(answer)) == strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
	default:
		return false
	}
}

// gradeSubmission records an answer for every question and awards full marks to
// correct objective answers. Short answers and essays score zero pending review.
func gradeSubmission(questions []model.Question, submitted map[string]string) (model.Answers, float64) {
	answers := make(model.Answers, len(questions))
	var score float64
	for _, q := range questions {
		key := strconv.FormatInt(q.ID, 10)
		record := model.AnswerRecord{
			StudentAnswer: submitted[key],
			CorrectAnswer: q.CorrectAnswer,
		}
		if q.Type.AutoGraded() && CheckAnswer(q, record.StudentAnswer) {
			record.Marks = q.Marks
			score += q.Marks
		}
		answers[key] = record
	}
	return answers, roundCents(score)
}

// minutesBetween returns whole minutes from start to end, or zero when the span is invalid.
func minutesBetween(start, end time.Time) int {
	if start.IsZero() || end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// applyGrades overwrites recorded marks for the graded questions and returns the
// score delta. Question IDs absent from the attempt's answers are ignored.
// Every grade is checked before any mark changes.
func applyGrades(answers model.Answers, questions []model.Question, grades map[string]float64) (float64, error) {
	maxMarks := make(map[string]float64, len(questions))
	for _, q := range questions {
		maxMarks[strconv.FormatInt(q.ID, 10)] = q.Marks
	}

	for id, marks := range grades {
		if _, ok := answers[id]; !ok {
			continue
		}
		limit, known := maxMarks[id]
		if math.IsNaN(marks) || marks < 0 || (known && marks > limit) {
			return 0, fmt.Errorf("%w: question %s must be graded between 0 and %g", ErrInvalidGrade, id, limit)
		}
		if !wholeCents(marks) {
			return 0, fmt.Errorf("%w: question %s must be graded with at most 2 decimal places", ErrInvalidGrade, id)
		}
	}

	var delta float64
	for id, marks := range grades {
		record, ok := answers[id]
		if !ok {
			continue
		}
		delta += marks - record.Marks
		record.Marks = marks
		answers[id] = record
	}
	return roundCents(delta), nil
}
