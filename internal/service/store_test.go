package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/database"
	"github.com/tutorlink/tutorlink-backend/internal/model"
	"github.com/tutorlink/tutorlink-backend/internal/repository"
)

// memDB is an in-memory stand-in for the PostgreSQL repositories and the Redis paper cache.
type memDB struct {
	mu          sync.Mutex
	nextID      int64
	quizzes     map[int64]*model.Quiz
	questions   map[int64][]model.Question
	assignments map[int64]*model.Assignment
	attempts    map[int64]*model.Attempt
	students    map[int64]*model.Student
	teachers    map[int64]*model.Teacher
	papers      map[int64]*model.QuizPaper
	paperGets   int
	now         time.Time

	failQuestions error
}

func newMemDB(now time.Time) *memDB {
	return &memDB{
		nextID:      1000,
		quizzes:     map[int64]*model.Quiz{},
		questions:   map[int64][]model.Question{},
		assignments: map[int64]*model.Assignment{},
		attempts:    map[int64]*model.Attempt{},
		students:    map[int64]*model.Student{},
		teachers:    map[int64]*model.Teacher{},
		papers:      map[int64]*model.QuizPaper{},
		now:         now,
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func copyAnswers(in model.Answers) model.Answers {
	out := make(model.Answers, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ─── Quizzes ───────────────────────────────────────────────────────────

type memQuizzes struct{ db *memDB }

func (s memQuizzes) GetByID(_ context.Context, id int64) (*model.Quiz, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.quizzes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *q
	cp.Questions = nil
	return &cp, nil
}

func (s memQuizzes) Create(_ context.Context, q *model.Quiz) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q.ID = s.db.id()
	q.CreatedAt, q.UpdatedAt = s.db.now, s.db.now
	cp := *q
	cp.Questions = nil
	s.db.quizzes[q.ID] = &cp
	return nil
}

func (s memQuizzes) Update(_ context.Context, q *model.Quiz) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.quizzes[q.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *q
	cp.Questions = nil
	s.db.quizzes[q.ID] = &cp
	return nil
}

func (s memQuizzes) UpdateStatus(_ context.Context, id int64, status model.QuizStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.quizzes[id]
	if !ok {
		return repository.ErrNotFound
	}
	q.Status = status
	return nil
}

func (s memQuizzes) Deactivate(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.quizzes[id]
	if !ok {
		return repository.ErrNotFound
	}
	q.IsActive = false
	return nil
}

func (s memQuizzes) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.quizzes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.quizzes, id)
	delete(s.db.questions, id)
	for aid, a := range s.db.assignments {
		if a.QuizID == id {
			delete(s.db.assignments, aid)
			for tid, t := range s.db.attempts {
				if t.AssignmentID == aid {
					delete(s.db.attempts, tid)
				}
			}
		}
	}
	return nil
}

func (s memQuizzes) list(keep func(*model.Quiz) bool) []model.Quiz {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Quiz{}
	for _, q := range s.db.quizzes {
		if keep(q) {
			cp := *q
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s memQuizzes) ListActivePaginated(_ context.Context, limit, offset int) ([]model.Quiz, int, error) {
	all := s.list(func(q *model.Quiz) bool { return q.IsActive })
	total := len(all)
	if offset >= total {
		return []model.Quiz{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s memQuizzes) ListByTeacher(_ context.Context, teacherID int64) ([]model.Quiz, error) {
	return s.list(func(q *model.Quiz) bool {
		return q.IsActive && q.TeacherID != nil && *q.TeacherID == teacherID
	}), nil
}

func (s memQuizzes) ListPublished(_ context.Context) ([]model.Quiz, error) {
	return s.list(func(q *model.Quiz) bool {
		return q.IsActive && q.Status == model.QuizStatusPublished
	}), nil
}

// ─── Questions ─────────────────────────────────────────────────────────

type memQuestions struct{ db *memDB }

func (s memQuestions) ListByQuiz(_ context.Context, quizID int64) ([]model.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]model.Question{}, s.db.questions[quizID]...), nil
}

func (s memQuestions) CreateMany(_ context.Context, quizID int64, questions []model.Question) ([]model.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failQuestions != nil {
		return nil, s.db.failQuestions
	}
	return s.store(quizID, questions), nil
}

func (s memQuestions) ReplaceAll(_ context.Context, quizID int64, questions []model.Question) ([]model.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failQuestions != nil {
		return nil, s.db.failQuestions
	}
	return s.store(quizID, questions), nil
}

func (s memQuestions) store(quizID int64, questions []model.Question) []model.Question {
	saved := make([]model.Question, len(questions))
	for i, q := range questions {
		q.ID = s.db.id()
		q.QuizID = quizID
		saved[i] = q
	}
	s.db.questions[quizID] = saved
	return append([]model.Question{}, saved...)
}

// ─── Assignments ───────────────────────────────────────────────────────

type memAssignments struct{ db *memDB }

func (s memAssignments) GetByID(_ context.Context, id int64) (*model.Assignment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s memAssignments) GetByQuizAndStudent(_ context.Context, quizID, studentID int64) (*model.Assignment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.assignments {
		if a.QuizID == quizID && a.StudentID == studentID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memAssignments) AssignedStudentIDs(_ context.Context, quizID int64, studentIDs []int64) ([]int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var ids []int64
	for _, id := range studentIDs {
		for _, a := range s.db.assignments {
			if a.QuizID == quizID && a.StudentID == id {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}

func (s memAssignments) CreateMany(_ context.Context, assignments []model.Assignment) ([]model.Assignment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	created := make([]model.Assignment, len(assignments))
	for i, a := range assignments {
		a.ID = s.db.id()
		a.AssignedAt = s.db.now
		cp := a
		s.db.assignments[a.ID] = &cp
		created[i] = a
	}
	return created, nil
}

func (s memAssignments) ListByQuiz(_ context.Context, quizID int64) ([]model.Assignment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Assignment{}
	for _, a := range s.db.assignments {
		if a.QuizID == quizID {
			cp := *a
			cp.Student = s.db.students[a.StudentID]
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memAssignments) ListForStudent(_ context.Context, studentID int64) ([]model.AssignedQuiz, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.AssignedQuiz{}
	for _, a := range s.db.assignments {
		q := s.db.quizzes[a.QuizID]
		if a.StudentID != studentID || !q.IsActive || q.Status != model.QuizStatusPublished || len(s.db.questions[q.ID]) == 0 {
			continue
		}
		cp := *a
		qc := *q
		cp.Quiz = &qc
		out = append(out, model.AssignedQuiz{Assignment: cp, QuestionCount: len(s.db.questions[q.ID])})
	}
	return out, nil
}

func (s memAssignments) CountByQuiz(_ context.Context, quizID int64) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, a := range s.db.assignments {
		if a.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (s memAssignments) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.assignments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.assignments, id)
	return nil
}

func (s memAssignments) RecordStart(_ context.Context, a *model.Assignment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.assignments[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Attempts++
	stored.Status = model.AssignmentStatusInProgress
	a.Attempts, a.Status = stored.Attempts, stored.Status
	return nil
}

func (s memAssignments) UpdateStatus(_ context.Context, id int64, status model.AssignmentStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = status
	return nil
}

func (s memAssignments) ResetAttempts(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	for tid, t := range s.db.attempts {
		if t.AssignmentID == id {
			delete(s.db.attempts, tid)
		}
	}
	a.Attempts = 0
	a.Status = model.AssignmentStatusAssigned
	return nil
}

func (s memAssignments) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for _, a := range s.db.assignments {
		open := a.Status == model.AssignmentStatusAssigned || a.Status == model.AssignmentStatusInProgress
		if open && a.PastDue(now) {
			a.Status = model.AssignmentStatusOverdue
			n++
		}
	}
	return n, nil
}

// ─── Attempts ──────────────────────────────────────────────────────────

type memAttempts struct{ db *memDB }

func (s memAttempts) GetByID(_ context.Context, id int64) (*model.Attempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	cp.Answers = copyAnswers(a.Answers)
	return &cp, nil
}

func (s memAttempts) Create(_ context.Context, a *model.Attempt) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a.ID = s.db.id()
	cp := *a
	cp.Answers = copyAnswers(a.Answers)
	s.db.attempts[a.ID] = &cp
	return nil
}

func (s memAttempts) Submit(_ context.Context, a *model.Attempt) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.attempts[a.ID]
	if !ok || stored.SubmittedAt != nil {
		return repository.ErrStaleWrite
	}
	cp := *a
	cp.Answers = copyAnswers(a.Answers)
	s.db.attempts[a.ID] = &cp
	return nil
}

func (s memAttempts) SaveGrades(_ context.Context, a *model.Attempt) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.attempts[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Answers = copyAnswers(a.Answers)
	stored.Score = a.Score
	stored.Status = a.Status
	return nil
}

func (s memAttempts) CountByQuiz(_ context.Context, quizID int64) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, t := range s.db.attempts {
		if a, ok := s.db.assignments[t.AssignmentID]; ok && a.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (s memAttempts) finished(keep func(*model.Attempt) bool) []model.Attempt {
	out := []model.Attempt{}
	for _, t := range s.db.attempts {
		if t.Finished() && keep(t) {
			cp := *t
			cp.Answers = copyAnswers(t.Answers)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s memAttempts) ListFinishedByStudent(_ context.Context, studentID int64) ([]model.Attempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.finished(func(t *model.Attempt) bool { return t.StudentID == studentID }), nil
}

func (s memAttempts) LatestFinished(_ context.Context, assignmentID int64) (*model.Attempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	list := s.finished(func(t *model.Attempt) bool { return t.AssignmentID == assignmentID })
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}

// ─── Paper cache ───────────────────────────────────────────────────────

type memPapers struct{ db *memDB }

func (s memPapers) Get(_ context.Context, quizID int64) (*model.QuizPaper, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.paperGets++
	p, ok := s.db.papers[quizID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s memPapers) Set(_ context.Context, paper *model.QuizPaper) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cp := *paper
	s.db.papers[paper.QuizID] = &cp
	return nil
}

func (s memPapers) Delete(_ context.Context, quizID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.papers, quizID)
	return nil
}

func (db *memDB) cachedPaper(quizID int64) (*model.QuizPaper, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.papers[quizID]
	return p, ok
}

// ─── Directory ─────────────────────────────────────────────────────────

type memStudents struct{ db *memDB }

func (s memStudents) GetByID(_ context.Context, id int64) (*model.Student, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	st, ok := s.db.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return st, nil
}

func (s memStudents) GetByUserID(_ context.Context, userID int64) (*model.Student, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, st := range s.db.students {
		if st.UserID == userID {
			return st, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memStudents) ListByIDs(_ context.Context, ids []int64) ([]model.Student, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Student{}
	for _, id := range ids {
		if st, ok := s.db.students[id]; ok {
			out = append(out, *st)
		}
	}
	return out, nil
}

type memTeachers struct{ db *memDB }

func (s memTeachers) GetByID(_ context.Context, id int64) (*model.Teacher, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.teachers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (s memTeachers) GetByUserID(_ context.Context, userID int64) (*model.Teacher, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, t := range s.db.teachers {
		if t.UserID == userID {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ─── Fixture ───────────────────────────────────────────────────────────

var (
	adminActor        = model.Actor{UserID: 1, Role: model.RoleAdmin}
	otherAdminActor   = model.Actor{UserID: 2, Role: model.RoleAdmin}
	teacherActor      = model.Actor{UserID: 10, Role: model.RoleTeacher}
	otherTeacherActor = model.Actor{UserID: 11, Role: model.RoleTeacher}
	studentActor      = model.Actor{UserID: 20, Role: model.RoleStudent}
	otherStudentActor = model.Actor{UserID: 21, Role: model.RoleStudent}
)

const (
	teacherID      int64 = 100
	otherTeacherID int64 = 101
	studentID      int64 = 200
	otherStudentID int64 = 201
	thirdStudentID int64 = 202
)

type fixture struct {
	db          *memDB
	now         time.Time
	quizzes     *QuizService
	assignments *AssignmentService
	attempts    *AttemptService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	f.db = newMemDB(f.now)

	f.db.teachers[teacherID] = &model.Teacher{ID: teacherID, UserID: 10, User: &model.User{ID: 10, FirstName: "Ana", LastName: "Lim", Email: "ana@tutorlink.test", Role: model.RoleTeacher}}
	f.db.teachers[otherTeacherID] = &model.Teacher{ID: otherTeacherID, UserID: 11, User: &model.User{ID: 11, FirstName: "Ben", Email: "ben@tutorlink.test", Role: model.RoleTeacher}}
	f.db.students[studentID] = &model.Student{ID: studentID, UserID: 20, User: &model.User{ID: 20, FirstName: "Sam", LastName: "Tan", Email: "sam@tutorlink.test", Role: model.RoleStudent}}
	f.db.students[otherStudentID] = &model.Student{ID: otherStudentID, UserID: 21, User: &model.User{ID: 21, FirstName: "Kim", Email: "kim@tutorlink.test", Role: model.RoleStudent}}
	f.db.students[thirdStudentID] = &model.Student{ID: thirdStudentID, UserID: 22, User: &model.User{ID: 22, FirstName: "Lee", Email: "lee@tutorlink.test", Role: model.RoleStudent}}

	retry := database.RetryPolicy{MaxAttempts: 1}
	log := zerolog.Nop()
	dir := NewDirectoryService(memStudents{f.db}, memTeachers{f.db}, retry, log)
	quizzes, questions := memQuizzes{f.db}, memQuestions{f.db}
	assignments, attempts, papers := memAssignments{f.db}, memAttempts{f.db}, memPapers{f.db}

	f.quizzes = NewQuizService(quizzes, questions, attempts, dir, papers, retry, log)
	f.assignments = NewAssignmentService(quizzes, questions, assignments, dir, papers, retry, log)
	f.attempts = NewAttemptService(quizzes, questions, assignments, attempts, dir, papers, retry,
		func() time.Time { return f.now }, log)
	return f
}

// advance moves both the service clock and the store clock forward.
func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
	f.db.mu.Lock()
	f.db.now = f.now
	f.db.mu.Unlock()
}

func intPtr(n int) *int { return &n }

func mcQuestion(text, correct string, marks float64) model.QuestionInput {
	return model.QuestionInput{
		Question:      text,
		QuestionType:  model.QuestionTypeMultipleChoice,
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: correct,
		Explanation:   "Because " + correct,
		Marks:         marks,
	}
}

func essayQuestion(text string, marks float64) model.QuestionInput {
	return model.QuestionInput{Question: text, QuestionType: model.QuestionTypeEssay, Marks: marks}
}

// createQuiz authors a quiz as the default teacher.
func (f *fixture) createQuiz(t *testing.T, maxAttempts *int, questions ...model.QuestionInput) *model.Quiz {
	t.Helper()
	q, err := f.quizzes.Create(context.Background(), teacherActor, model.QuizDraft{
		Title:       "Cell biology",
		Description: "Week 3 check",
		TimeLimit:   intPtr(30),
		MaxAttempts: maxAttempts,
		Questions:   questions,
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return q
}

// publishedAssigned creates, publishes and assigns a quiz to the default student.
func (f *fixture) publishedAssigned(t *testing.T, maxAttempts *int, due *time.Time, questions ...model.QuestionInput) (*model.Quiz, model.Assignment) {
	t.Helper()
	ctx := context.Background()
	q := f.createQuiz(t, maxAttempts, questions...)
	if _, err := f.quizzes.Publish(ctx, teacherActor, q.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	created, err := f.assignments.Assign(ctx, teacherActor, q.ID, []int64{studentID}, due)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	return q, created[0]
}
