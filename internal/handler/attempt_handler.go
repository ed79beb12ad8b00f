package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/middleware"
	"github.com/tutorlink/tutorlink-backend/internal/model"
	"github.com/tutorlink/tutorlink-backend/internal/response"
	"github.com/tutorlink/tutorlink-backend/internal/service"
	"github.com/tutorlink/tutorlink-backend/internal/validator"
)

// AttemptHandler handles quiz attempt, submission and grading endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "attempt_handler").Logger(),
	}
}

// StartAttempt godoc
// POST /api/v1/quizzes/assignments/:assignment_id/attempt
// Starts an attempt and returns it together with the quiz paper.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assignmentID, ok := paramID(c, "assignment_id")
	if !ok {
		return
	}

	started, err := h.attemptService.Start(c.Request.Context(), actor, assignmentID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, started)
}

// SubmitAttempt godoc
// POST /api/v1/quizzes/attempts/:attempt_id/submit
// Submits answers keyed by question ID; objective questions are graded immediately.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := paramID(c, "attempt_id")
	if !ok {
		return
	}

	var req model.SubmitQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.Submit(c.Request.Context(), actor, attemptID, req.Answers)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt, "percentage": attempt.Percentage()})
}

// GradeAttempt godoc
// PATCH /api/v1/quizzes/attempts/:attempt_id/grade
// Applies manual marks keyed by question ID. Owning teacher only.
func (h *AttemptHandler) GradeAttempt(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := paramID(c, "attempt_id")
	if !ok {
		return
	}

	var req model.GradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.Grade(c.Request.Context(), actor, attemptID, req.Grades)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// ResetAttempts godoc
// PATCH /api/v1/quizzes/assignments/:assignment_id/reset-attempts
// Deletes every attempt of an assignment. Support tool.
func (h *AttemptHandler) ResetAttempts(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assignmentID, ok := paramID(c, "assignment_id")
	if !ok {
		return
	}

	res, err := h.attemptService.ResetAttempts(c.Request.Context(), actor, assignmentID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// ListMyAttempts godoc
// GET /api/v1/quizzes/my-attempts
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.attemptService.ListMine(c.Request.Context(), actor)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// GetAttemptDetails godoc
// GET /api/v1/quizzes/attempts/:attempt_id/details
func (h *AttemptHandler) GetAttemptDetails(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := paramID(c, "attempt_id")
	if !ok {
		return
	}

	review, err := h.attemptService.Details(c.Request.Context(), actor, attemptID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": review})
}

// GetAssignmentResult godoc
// GET /api/v1/quizzes/assignments/:assignment_id/result
// Returns the latest finished attempt of the caller's assignment.
func (h *AttemptHandler) GetAssignmentResult(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assignmentID, ok := paramID(c, "assignment_id")
	if !ok {
		return
	}

	review, err := h.attemptService.AssignmentResult(c.Request.Context(), actor, assignmentID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": review})
}

// GetQuizResults godoc
// GET /api/v1/quizzes/:id/results
// Returns one row per assignment with its latest finished attempt.
func (h *AttemptHandler) GetQuizResults(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, ok := paramID(c, "id")
	if !ok {
		return
	}

	results, err := h.attemptService.QuizResults(c.Request.Context(), actor, quizID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
