package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/response"
	"github.com/tutorlink/tutorlink-backend/internal/service"
)

// serviceErrors maps service sentinels onto HTTP status and API code.
var serviceErrors = []struct {
	err    error
	status int
	code   response.ErrCode
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},

	{service.ErrForbidden, http.StatusForbidden, response.ErrForbidden},
	{service.ErrNotQuizOwner, http.StatusForbidden, response.ErrNotQuizOwner},
	{service.ErrNotAttemptOwner, http.StatusForbidden, response.ErrNotAttemptOwner},

	{service.ErrQuizNotFound, http.StatusNotFound, response.ErrQuizNotFound},
	{service.ErrAssignmentNotFound, http.StatusNotFound, response.ErrAssignmentNotFound},
	{service.ErrAttemptNotFound, http.StatusNotFound, response.ErrAttemptNotFound},
	{service.ErrStudentNotFound, http.StatusNotFound, response.ErrStudentNotFound},
	{service.ErrTeacherNotFound, http.StatusNotFound, response.ErrTeacherNotFound},
	{service.ErrUserNotFound, http.StatusNotFound, response.ErrNotFound},

	{service.ErrAlreadyPublished, http.StatusConflict, response.ErrQuizAlreadyPublished},
	{service.ErrAlreadyDraft, http.StatusConflict, response.ErrQuizAlreadyDraft},
	{service.ErrAllStudentsAssigned, http.StatusConflict, response.ErrAllStudentsAssigned},
	{service.ErrAlreadySubmitted, http.StatusConflict, response.ErrAlreadySubmitted},

	{service.ErrQuizNotPublished, http.StatusBadRequest, response.ErrQuizNotPublished},
	{service.ErrAssignmentAttempted, http.StatusBadRequest, response.ErrAssignmentAttempted},
	{service.ErrAttemptsExhausted, http.StatusBadRequest, response.ErrAttemptsExhausted},
	{service.ErrDueDatePassed, http.StatusBadRequest, response.ErrDueDatePassed},
	{service.ErrAttemptNotSubmitted, http.StatusBadRequest, response.ErrAttemptNotSubmitted},
}

// fail writes the response for a service error. Unknown errors are logged and
// reported as 500.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	var qErr *service.QuestionError
	if errors.As(err, &qErr) {
		field := fmt.Sprintf("questions[%d].%s", qErr.Index, qErr.Field)
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuestion, map[string]string{field: qErr.Error()})
		return
	}

	var missing *service.MissingStudentsError
	if errors.As(err, &missing) {
		response.FailWithFields(c, http.StatusNotFound, response.ErrStudentsNotFound, map[string]string{"student_ids": missing.Error()})
		return
	}

	if errors.Is(err, service.ErrInvalidGrade) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidGrade, map[string]string{"grades": err.Error()})
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			response.Fail(c, m.status, m.code)
			return
		}
	}

	log.Error().Err(err).
		Str("request_id", response.RequestID(c)).
		Str("route", c.FullPath()).
		Msg("Unhandled service error")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// paramID parses a positive integer path parameter, writing a 400 on failure.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
