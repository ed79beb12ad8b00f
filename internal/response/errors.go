package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrRoleNotAllowed  ErrCode = "ROLE_NOT_ALLOWED"
	ErrNotQuizOwner    ErrCode = "NOT_QUIZ_OWNER"
	ErrNotAttemptOwner ErrCode = "NOT_ATTEMPT_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidQuestion ErrCode = "INVALID_QUESTION"
	ErrInvalidGrade    ErrCode = "INVALID_GRADE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrQuizNotFound       ErrCode = "QUIZ_NOT_FOUND"
	ErrAssignmentNotFound ErrCode = "ASSIGNMENT_NOT_FOUND"
	ErrAttemptNotFound    ErrCode = "ATTEMPT_NOT_FOUND"
	ErrStudentNotFound    ErrCode = "STUDENT_NOT_FOUND"
	ErrStudentsNotFound   ErrCode = "STUDENTS_NOT_FOUND"
	ErrTeacherNotFound    ErrCode = "TEACHER_NOT_FOUND"
	ErrConflict           ErrCode = "CONFLICT"

	// ─── Quiz workflow ─────────────────────────────────────────────────
	ErrQuizAlreadyPublished ErrCode = "QUIZ_ALREADY_PUBLISHED"
	ErrQuizAlreadyDraft     ErrCode = "QUIZ_ALREADY_DRAFT"
	ErrQuizNotPublished     ErrCode = "QUIZ_NOT_PUBLISHED"
	ErrAllStudentsAssigned  ErrCode = "ALL_STUDENTS_ASSIGNED"
	ErrAssignmentAttempted  ErrCode = "ASSIGNMENT_ATTEMPTED"
	ErrAttemptsExhausted    ErrCode = "ATTEMPTS_EXHAUSTED"
	ErrDueDatePassed        ErrCode = "DUE_DATE_PASSED"
	ErrAlreadySubmitted     ErrCode = "ALREADY_SUBMITTED"
	ErrAttemptNotSubmitted  ErrCode = "ATTEMPT_NOT_SUBMITTED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrRoleNotAllowed:
		return "Your role cannot access this resource."
	case ErrNotQuizOwner:
		return "You can only manage your own quizzes."
	case ErrNotAttemptOwner:
		return "This attempt belongs to another student."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidQuestion:
		return "One of the questions is invalid."
	case ErrInvalidGrade:
		return "Grades must be between 0 and the question's marks."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrQuizNotFound:
		return "Quiz not found."
	case ErrAssignmentNotFound:
		return "Quiz assignment not found."
	case ErrAttemptNotFound:
		return "Quiz attempt not found."
	case ErrStudentNotFound:
		return "Student profile not found."
	case ErrStudentsNotFound:
		return "Some students were not found."
	case ErrTeacherNotFound:
		return "Teacher profile not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Quiz workflow ─────────────────────────────────────────────────
	case ErrQuizAlreadyPublished:
		return "Quiz is already published."
	case ErrQuizAlreadyDraft:
		return "Quiz is already a draft."
	case ErrQuizNotPublished:
		return "Quiz is not published."
	case ErrAllStudentsAssigned:
		return "All selected students already have this quiz assigned."
	case ErrAssignmentAttempted:
		return "Cannot remove an assignment that has already been attempted."
	case ErrAttemptsExhausted:
		return "Maximum number of attempts reached."
	case ErrDueDatePassed:
		return "Quiz due date has passed."
	case ErrAlreadySubmitted:
		return "Quiz attempt has already been submitted."
	case ErrAttemptNotSubmitted:
		return "Quiz attempt has not been submitted yet."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
