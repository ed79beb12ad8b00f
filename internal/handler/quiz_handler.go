package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/middleware"
	"github.com/tutorlink/tutorlink-backend/internal/model"
	"github.com/tutorlink/tutorlink-backend/internal/response"
	"github.com/tutorlink/tutorlink-backend/internal/service"
	"github.com/tutorlink/tutorlink-backend/internal/validator"
)

// QuizHandler handles quiz authoring endpoints.
type QuizHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		log:         log.With().Str("component", "quiz_handler").Logger(),
	}
}

// ListQuizzes godoc
// GET /api/v1/quizzes
// Lists active quizzes with pagination. Admin only.
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	quizzes, pagination, err := h.quizService.ListAll(c.Request.Context(), actor, page, perPage)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"quizzes": quizzes}, pagination)
}

// ListMyQuizzes godoc
// GET /api/v1/quizzes/my-quizzes
// Lists the calling teacher's quizzes with their questions.
func (h *QuizHandler) ListMyQuizzes(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizzes, err := h.quizService.ListMine(c.Request.Context(), actor)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// CreateQuiz godoc
// POST /api/v1/quizzes
// Creates a quiz with its questions. Status defaults to draft.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.UpsertQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), actor, req.Draft())
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz})
}

// GetQuiz godoc
// GET /api/v1/quizzes/:id
// Authors receive the full quiz with answers; students receive the answer-free paper.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if actor.Role == model.RoleStudent {
		paper, err := h.quizService.Paper(c.Request.Context(), id)
		if err != nil {
			fail(c, h.log, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"quiz": paper})
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), actor, id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// UpdateQuiz godoc
// PUT /api/v1/quizzes/:id
// Replaces the quiz fields and its whole question set.
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.UpsertQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), actor, id, req.Draft())
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// DeleteQuiz godoc
// DELETE /api/v1/quizzes/:id
// Hard-deletes an unattempted quiz, otherwise deactivates it.
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	soft, err := h.quizService.Delete(c.Request.Context(), actor, id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	message := "quiz deleted successfully"
	if soft {
		message = "quiz has attempts and was deactivated instead of deleted"
	}
	response.Success(c, http.StatusOK, gin.H{"message": message, "soft_deleted": soft})
}

// PublishQuiz godoc
// PATCH /api/v1/quizzes/:id/publish
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	h.transition(c, h.quizService.Publish)
}

// UnpublishQuiz godoc
// PATCH /api/v1/quizzes/:id/unpublish
func (h *QuizHandler) UnpublishQuiz(c *gin.Context) {
	h.transition(c, h.quizService.Unpublish)
}

func (h *QuizHandler) transition(c *gin.Context, fn func(ctx context.Context, actor model.Actor, id int64) (*model.Quiz, error)) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	quiz, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}
