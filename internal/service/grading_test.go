package service

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorlink/tutorlink-backend/internal/model"
)

func TestCheckAnswer(t *testing.T) {
	mc := model.Question{Type: model.QuestionTypeMultipleChoice, CorrectAnswer: "B"}
	tf := model.Question{Type: model.QuestionTypeTrueFalse, CorrectAnswer: "true"}
	short := model.Question{Type: model.QuestionTypeShortAnswer, CorrectAnswer: "Photosynthesis"}
	essay := model.Question{Type: model.QuestionTypeEssay, CorrectAnswer: "anything"}

	cases := []struct {
		name   string
		q      model.Question
		answer string
		want   bool
	}{
		{"mc exact", mc, "B", true},
		{"mc wrong", mc, "C", false},
		{"mc case sensitive", mc, "b", false},
		{"tf exact", tf, "true", true},
		{"tf case sensitive", tf, "True", false},
		{"short ignores case and space", short, "  photosynthesis ", true},
		{"short wrong", short, "respiration", false},
		{"essay never correct", essay, "anything", false},
		{"empty answer", mc, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CheckAnswer(tc.q, tc.answer))
		})
	}
}

func TestGradeSubmissionAwardsObjectiveMarksOnly(t *testing.T) {
	questions := []model.Question{
		{ID: 1, Type: model.QuestionTypeMultipleChoice, CorrectAnswer: "B", Marks: 4},
		{ID: 2, Type: model.QuestionTypeTrueFalse, CorrectAnswer: "false", Marks: 2},
		{ID: 3, Type: model.QuestionTypeShortAnswer, CorrectAnswer: "Paris", Marks: 3},
		{ID: 4, Type: model.QuestionTypeEssay, Marks: 10},
	}

	answers, score := gradeSubmission(questions, map[string]string{
		"1": "B",
		"2": "true",
		"3": "paris",
		"4": "long text",
	})

	assert.Equal(t, 4.0, score)
	assert.Equal(t, 4.0, answers["1"].Marks)
	assert.Equal(t, 0.0, answers["2"].Marks)
	assert.Equal(t, 0.0, answers["3"].Marks, "short answers wait for manual review")
	assert.Equal(t, "long text", answers["4"].StudentAnswer)
	assert.Equal(t, "Paris", answers["3"].CorrectAnswer)
}

func TestGradeSubmissionRecordsUnansweredQuestions(t *testing.T) {
	questions := []model.Question{{ID: 9, Type: model.QuestionTypeMultipleChoice, CorrectAnswer: "A", Marks: 1}}

	answers, score := gradeSubmission(questions, map[string]string{"12345": "A"})

	require.Contains(t, answers, "9")
	assert.Equal(t, "", answers["9"].StudentAnswer)
	assert.Zero(t, score)
	assert.NotContains(t, answers, "12345")
}

func TestMinutesBetween(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 12, minutesBetween(start, start.Add(12*time.Minute+59*time.Second)))
	assert.Equal(t, 0, minutesBetween(start, start.Add(-time.Minute)))
	assert.Equal(t, 0, minutesBetween(time.Time{}, start))
}

func TestValidateQuestions(t *testing.T) {
	valid := model.QuestionInput{Question: "2+2?", QuestionType: model.QuestionTypeMultipleChoice, CorrectAnswer: "4", Marks: 1}

	cases := []struct {
		name  string
		input model.QuestionInput
		field string
	}{
		{"blank text", model.QuestionInput{Question: "  ", QuestionType: model.QuestionTypeEssay, Marks: 1}, "question"},
		{"unknown type", model.QuestionInput{Question: "q", QuestionType: "matching", Marks: 1}, "question_type"},
		{"objective without answer", model.QuestionInput{Question: "q", QuestionType: model.QuestionTypeTrueFalse, Marks: 1}, "correct_answer"},
		{"zero marks", model.QuestionInput{Question: "q", QuestionType: model.QuestionTypeEssay}, "marks"},
		{"nan marks", model.QuestionInput{Question: "q", QuestionType: model.QuestionTypeEssay, Marks: math.NaN()}, "marks"},
		{"sub-cent marks", model.QuestionInput{Question: "q", QuestionType: model.QuestionTypeEssay, Marks: 0.335}, "marks"},
		{"marks rounding to zero", model.QuestionInput{Question: "q", QuestionType: model.QuestionTypeEssay, Marks: 0.004}, "marks"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateQuestions([]model.QuestionInput{valid, tc.input})

			var qErr *QuestionError
			require.True(t, errors.As(err, &qErr))
			assert.Equal(t, 1, qErr.Index)
			assert.Equal(t, tc.field, qErr.Field)
			assert.Contains(t, qErr.Error(), "question 2")
		})
	}

	assert.NoError(t, validateQuestions([]model.QuestionInput{valid}))
	assert.NoError(t, validateQuestions(nil))
	assert.NoError(t, validateQuestions([]model.QuestionInput{
		{Question: "q", QuestionType: model.QuestionTypeEssay, Marks: 0.1},
		{Question: "q", QuestionType: model.QuestionTypeEssay, Marks: 0.29},
	}))
}

func TestBuildQuestionsTotalMatchesStoredPrecision(t *testing.T) {
	inputs := []model.QuestionInput{
		{Question: "a", QuestionType: model.QuestionTypeEssay, Marks: 0.1},
		{Question: "b", QuestionType: model.QuestionTypeEssay, Marks: 0.2},
		{Question: "c", QuestionType: model.QuestionTypeEssay, Marks: 0.34},
	}
	require.NoError(t, validateQuestions(inputs))

	_, total := buildQuestions(1, inputs)
	assert.Equal(t, 0.64, total)
}

func TestBuildQuestionsOrdersAndTotals(t *testing.T) {
	questions, total := buildQuestions(7, []model.QuestionInput{
		{Question: " first ", QuestionType: model.QuestionTypeEssay, Marks: 2.5},
		{Question: "second", QuestionType: model.QuestionTypeMultipleChoice, CorrectAnswer: " A ", Marks: 1.5},
	})

	require.Len(t, questions, 2)
	assert.Equal(t, 4.0, total)
	assert.Equal(t, 0, questions[0].OrderIndex)
	assert.Equal(t, 1, questions[1].OrderIndex)
	assert.Equal(t, "first", questions[0].Text)
	assert.Equal(t, "A", questions[1].CorrectAnswer)
	assert.Equal(t, int64(7), questions[1].QuizID)
	assert.NotNil(t, questions[0].Options)
}

func TestApplyGrades(t *testing.T) {
	questions := []model.Question{
		{ID: 1, Type: model.QuestionTypeMultipleChoice, Marks: 5},
		{ID: 2, Type: model.QuestionTypeEssay, Marks: 10},
	}

	t.Run("adds delta for recorded questions", func(t *testing.T) {
		answers := model.Answers{"1": {Marks: 5}, "2": {Marks: 3}}

		delta, err := applyGrades(answers, questions, map[string]float64{"2": 8, "99": 4})

		require.NoError(t, err)
		assert.Equal(t, 5.0, delta)
		assert.Equal(t, 8.0, answers["2"].Marks)
	})

	t.Run("rejects marks above the question's value", func(t *testing.T) {
		answers := model.Answers{"1": {Marks: 5}, "2": {Marks: 0}}

		_, err := applyGrades(answers, questions, map[string]float64{"1": 5, "2": 11})

		require.ErrorIs(t, err, ErrInvalidGrade)
		assert.Equal(t, 0.0, answers["2"].Marks, "no mark changes on rejection")
	})

	t.Run("rejects negative marks", func(t *testing.T) {
		answers := model.Answers{"2": {}}
		_, err := applyGrades(answers, questions, map[string]float64{"2": -1})
		require.ErrorIs(t, err, ErrInvalidGrade)
	})

	for _, marks := range []float64{0.335, 0.004} {
		t.Run(fmt.Sprintf("rejects sub-cent grade %g", marks), func(t *testing.T) {
			answers := model.Answers{"2": {}}
			_, err := applyGrades(answers, questions, map[string]float64{"2": marks})
			require.ErrorIs(t, err, ErrInvalidGrade)
			assert.Equal(t, 0.0, answers["2"].Marks)
		})
	}

	t.Run("accepts cent precision", func(t *testing.T) {
		answers := model.Answers{"2": {Marks: 0.1}}
		delta, err := applyGrades(answers, questions, map[string]float64{"2": 0.3})
		require.NoError(t, err)
		assert.Equal(t, 0.2, delta)
	})
}
