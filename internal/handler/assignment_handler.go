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

// AssignmentHandler handles quiz assignment endpoints.
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	log               zerolog.Logger
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService *service.AssignmentService, log zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		log:               log.With().Str("component", "assignment_handler").Logger(),
	}
}

// AssignQuiz godoc
// POST /api/v1/quizzes/:id/assign
// Assigns a quiz to students. Already-assigned students are skipped.
func (h *AssignmentHandler) AssignQuiz(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.AssignQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assignments, err := h.assignmentService.Assign(c.Request.Context(), actor, quizID, req.StudentIDs, req.DueDate)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"assignments": assignments})
}

// RemoveAssignment godoc
// DELETE /api/v1/quizzes/:id/assignments/:student_id
// Removes an unattempted assignment. Reports whether the quiz fell back to draft.
func (h *AssignmentHandler) RemoveAssignment(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, ok := paramID(c, "id")
	if !ok {
		return
	}
	studentID, ok := paramID(c, "student_id")
	if !ok {
		return
	}

	res, err := h.assignmentService.Remove(c.Request.Context(), actor, quizID, studentID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// ListQuizAssignments godoc
// GET /api/v1/quizzes/:id/assignments
func (h *AssignmentHandler) ListQuizAssignments(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, ok := paramID(c, "id")
	if !ok {
		return
	}

	assignments, err := h.assignmentService.ListForQuiz(c.Request.Context(), actor, quizID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignments": assignments})
}

// ListAssigned godoc
// GET /api/v1/quizzes/assigned
// Lists the calling student's published quiz assignments.
func (h *AssignmentHandler) ListAssigned(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assigned, err := h.assignmentService.ListForStudent(c.Request.Context(), actor)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignments": assigned})
}
