package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorlink/tutorlink-backend/internal/model"
)

func key(id int64) string { return strconv.FormatInt(id, 10) }

// MC worth 5 with answer A plus a 10 mark essay, one attempt allowed, due tomorrow.
func TestAttemptService_EssayQuizLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := f.now.Add(24 * time.Hour)
	q, a := f.publishedAssigned(t, intPtr(1), &due, mcQuestion("Pick A", "A", 5), essayQuestion("Explain", 10))
	mcID, essayID := q.Questions[0].ID, q.Questions[1].ID

	started, err := f.attempts.Start(ctx, studentActor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, started.Assignment.Attempts)
	assert.Equal(t, model.AssignmentStatusInProgress, started.Assignment.Status)
	assert.Equal(t, 15.0, started.Attempt.MaxScore)
	assert.Equal(t, model.AttemptStatusStarted, started.Attempt.Status)
	require.NotNil(t, started.Paper)
	assert.Len(t, started.Paper.Questions, 2)

	f.advance(12*time.Minute + 30*time.Second)
	submitted, err := f.attempts.Submit(ctx, studentActor, started.Attempt.ID, map[string]string{
		key(mcID):    "A",
		key(essayID): "free text",
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, submitted.Score)
	assert.Equal(t, model.AttemptStatusSubmitted, submitted.Status, "essays hold the attempt until graded")
	assert.Equal(t, 12, submitted.TimeTaken)
	assert.Equal(t, "free text", submitted.Answers[key(essayID)].StudentAnswer)
	assert.Zero(t, submitted.Answers[key(essayID)].Marks)
	assert.Equal(t, model.AssignmentStatusCompleted, f.db.assignments[a.ID].Status)

	graded, err := f.attempts.Grade(ctx, teacherActor, started.Attempt.ID, map[string]float64{key(essayID): 8})
	require.NoError(t, err)
	assert.Equal(t, 13.0, graded.Score)
	assert.Equal(t, model.AttemptStatusGraded, graded.Status)
	assert.Equal(t, model.AssignmentStatusCompleted, f.db.assignments[a.ID].Status)
	assert.Equal(t, 13.0, f.db.attempts[started.Attempt.ID].Score)

	_, err = f.attempts.Start(ctx, studentActor, a.ID)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
}

func TestAttemptService_AutoGradedQuizIsFinalOnSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, a := f.publishedAssigned(t, nil, nil, mcQuestion("Pick B", "B", 4), mcQuestion("Pick C", "C", 6))

	started, err := f.attempts.Start(ctx, studentActor, a.ID)
	require.NoError(t, err)

	submitted, err := f.attempts.Submit(ctx, studentActor, started.Attempt.ID, map[string]string{
		key(q.Questions[0].ID): "B",
		key(q.Questions[1].ID): "D",
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, submitted.Score)
	assert.Equal(t, model.AttemptStatusGraded, submitted.Status)
	assert.Equal(t, 4.0, submitted.Answers[key(q.Questions[0].ID)].Marks)
	assert.Zero(t, submitted.Answers[key(q.Questions[1].ID)].Marks)
	assert.Equal(t, "C", submitted.Answers[key(q.Questions[1].ID)].CorrectAnswer)
}

func TestAttemptService_SubmitTwiceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, a := f.publishedAssigned(t, nil, nil, mcQuestion("a", "A", 1))
	started, err := f.attempts.Start(ctx, studentActor, a.ID)
	require.NoError(t, err)

	_, err = f.attempts.Submit(ctx, studentActor, started.Attempt.ID, map[string]string{})
	require.NoError(t, err)

	_, err = f.attempts.Submit(ctx, studentActor, started.Attempt.ID, map[string]string{})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestAttemptService_SubmitOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, a := f.publishedAssigned(t, nil, nil, mcQuestion("a", "A", 1))
	started, err := f.attempts.Start(ctx, studentActor, a.ID)
	require.NoError(t, err)

	_, err = f.attempts.Submit(ctx, otherStudentActor, started.Attempt.ID, map[string]string{})
	assert.ErrorIs(t, err, ErrNotAttemptOwner)

	_, err = f.attempts.Submit(ctx, teacherActor, started.Attempt.ID, map[string]string{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.attempts.Submit(ctx, studentActor, 999, map[string]string{})
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestAttemptService_UnlimitedAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, a := f.publishedAssigned(t, nil, nil, mcQuestion("a", "A", 1))

	for i := 1; i <= 5; i++ {
		started, err := f.attempts.Start(ctx, studentActor, a.ID)
		require.NoError(t, err)
		assert.Equal(t, i, started.Assignment.Attempts)
	}
}

func TestAttemptService_AttemptLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, a := f.publishedAssigned(t, intPtr(2), nil, mcQuestion("a", "A", 1))

	for i := 0; i < 2; i++ {
		_, err := f.attempts.Start(ctx, studentActor, a.ID)
		require.NoError(t, err)
	}
	_, err := f.attempts.Start(ctx, studentActor, a.ID)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 2, f.db.assignments[a.ID].Attempts, "a rejected start leaves the counter alone")
}

func TestAttemptService_StartGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := f.now.Add(time.Hour)
	q, a := f.publishedAssigned(t, nil, &due, mcQuestion("a", "A", 1))

	_, err := f.attempts.Start(ctx, otherStudentActor, a.ID)
	assert.ErrorIs(t, err, ErrAssignmentNotFound, "another student's assignment is hidden")

	_, err = f.attempts.Start(ctx, teacherActor, a.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.quizzes.Unpublish(ctx, teacherActor, q.ID)
	require.NoError(t, err)
	_, err = f.attempts.Start(ctx, studentActor, a.ID)
	assert.ErrorIs(t, err, ErrQuizNotPublished)

	_, err = f.quizzes.Publish(ctx, teacherActor, q.ID)
	require.NoError(t, err)
	f.advance(2 * time.Hour)
	_, err = f.attempts.Start(ctx, studentActor, a.ID)
	assert.ErrorIs(t, err, ErrDueDatePassed)
	assert.Zero(t, f.db.assignments[a.ID].Attempts)
}

func TestAttemptService_StartServesPaperFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, a := f.publishedAssigned(t, nil, nil, mcQuestion("a", "A", 1))

	cached, ok := f.db.cachedPaper(q.ID)
	require.True(t, ok)
	cached.Title = "from cache"

	started, err := f.attempts.Start(ctx, studentActor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "from cache", started.Paper.Title)

	delete(f.db.papers, q.ID)
	started, err = f.attempts.Start(ctx, studentActor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cell biology", started.Paper.Title)
	_, ok = f.db.cachedPaper(q.ID)
	assert.True(t, ok, "a miss repopulates the cache")
}

func TestAttemptService_GradeRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, a := f.publishedAssigned(t, nil, nil, essayQuestion("Explain", 10))
	essayID := q.Questions[0].ID
	started, err := f.attempts.Start(ctx, studentActor, a.ID)
	require.NoError(t, err)
	attemptID := started.Attempt.ID

	_, err = f.attempts.Grade(ctx, teacherActor, attemptID, map[string]float64{key(essayID): 5})
	assert.ErrorIs(t, err, ErrAttemptNotSubmitted)

	_, err = f.attempts.Submit(ctx, studentActor, attemptID, map[string]string{key(essayID): "words"})
	require.NoError(t, err)

	_, err = f.attempts.Grade(ctx, otherTeacherActor, attemptID, map[string]float64{key(essayID): 5})
	assert.ErrorIs(t, err, ErrNotQuizOwner)

	_, err = f.attempts.Grade(ctx, adminActor, attemptID, map[string]float64{key(essayID): 5})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.attempts.Grade(ctx, teacherActor, attemptID, map[string]float64{key(essayID): 11})
	assert.ErrorIs(t, err, ErrInvalidGrade)

	graded, err := f.attempts.Grade(ctx, teacherActor, attemptID, map[string]float64{key(essayID): 6})
	require.NoError(t, err)
	assert.Equal(t, 6.0, graded.Score)

	// Regrading applies the difference, not the sum.
	graded, err = f.attempts.Grade(ctx, teacherActor, attemptID, map[string]float64{key(essayID): 9, "424242": 3})
	require.NoError(t, err)
	assert.Equal(t, 9.0, graded.Score)
}

func TestAttemptService_ResetAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, a := f.publishedAssigned(t, intPtr(1), nil, mcQuestion("a", "A", 1))
	started, err := f.attempts.Start(ctx, studentActor, a.ID)
	require.NoError(t, err)
	_, err = f.attempts.Submit(ctx, studentActor, started.Attempt.ID, map[string]string{})
	require.NoError(t, err)

	_, err = f.attempts.ResetAttempts(ctx, otherTeacherActor, a.ID)
	assert.ErrorIs(t, err, ErrNotQuizOwner)

	res, err := f.attempts.ResetAttempts(ctx, adminActor, a.ID)
	require.NoError(t, err)
	assert.Zero(t, res.Attempts)
	assert.Empty(t, f.db.attempts)
	assert.Equal(t, model.AssignmentStatusAssigned, f.db.assignments[a.ID].Status)

	_, err = f.attempts.Start(ctx, studentActor, a.ID)
	assert.NoError(t, err, "a reset assignment can be attempted again")
}

func TestAttemptService_Reviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, a := f.publishedAssigned(t, nil, nil, mcQuestion("Pick A", "A", 5), essayQuestion("Explain", 10))
	mcID, essayID := q.Questions[0].ID, q.Questions[1].ID

	started, err := f.attempts.Start(ctx, studentActor, a.ID)
	require.NoError(t, err)

	_, err = f.attempts.Details(ctx, studentActor, started.Attempt.ID)
	assert.ErrorIs(t, err, ErrAttemptNotSubmitted)
	_, err = f.attempts.AssignmentResult(ctx, studentActor, a.ID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	_, err = f.attempts.Submit(ctx, studentActor, started.Attempt.ID, map[string]string{key(mcID): "A", key(essayID): "text"})
	require.NoError(t, err)

	review, err := f.attempts.Details(ctx, studentActor, started.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, review.Percentage)
	assert.Equal(t, "Ana Lim", review.Quiz.TeacherName)
	assert.Equal(t, 2, review.Quiz.QuestionCount)
	assert.Equal(t, a.ID, review.Assignment.ID)
	require.Len(t, review.Questions, 2)
	assert.True(t, review.Questions[0].IsCorrect)
	assert.Equal(t, 5.0, review.Questions[0].PointsEarned)
	assert.False(t, review.Questions[1].IsCorrect)
	assert.Equal(t, "text", review.Questions[1].StudentAnswer)

	_, err = f.attempts.Details(ctx, otherStudentActor, started.Attempt.ID)
	assert.ErrorIs(t, err, ErrNotAttemptOwner)

	result, err := f.attempts.AssignmentResult(ctx, studentActor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, started.Attempt.ID, result.ID)

	mine, err := f.attempts.ListMine(ctx, studentActor)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, q.Title, mine[0].Quiz.Title)
}

func TestAttemptService_QuizResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, a := f.publishedAssigned(t, nil, nil, mcQuestion("a", "A", 2))
	_, err := f.assignments.Assign(ctx, teacherActor, q.ID, []int64{otherStudentID}, nil)
	require.NoError(t, err)

	started, err := f.attempts.Start(ctx, studentActor, a.ID)
	require.NoError(t, err)
	_, err = f.attempts.Submit(ctx, studentActor, started.Attempt.ID, map[string]string{key(q.Questions[0].ID): "A"})
	require.NoError(t, err)

	results, err := f.attempts.QuizResults(ctx, teacherActor, q.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)

	done := results[0]
	assert.Equal(t, studentID, done.StudentID)
	assert.Equal(t, "Sam Tan", done.StudentName)
	require.NotNil(t, done.Score)
	assert.Equal(t, 2.0, *done.Score)
	assert.True(t, done.Graded)
	assert.Equal(t, 1, done.AttemptCount)

	pending := results[1]
	assert.Equal(t, otherStudentID, pending.StudentID)
	assert.Nil(t, pending.Score)
	assert.Zero(t, pending.ID)
	assert.Equal(t, 2.0, pending.MaxScore)

	_, err = f.attempts.QuizResults(ctx, otherTeacherActor, q.ID)
	assert.ErrorIs(t, err, ErrNotQuizOwner)
}
