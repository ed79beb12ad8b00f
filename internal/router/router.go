package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/config"
	"github.com/tutorlink/tutorlink-backend/internal/handler"
	"github.com/tutorlink/tutorlink-backend/internal/logger"
	"github.com/tutorlink/tutorlink-backend/internal/metrics"
	"github.com/tutorlink/tutorlink-backend/internal/middleware"
	"github.com/tutorlink/tutorlink-backend/internal/model"
	"github.com/tutorlink/tutorlink-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Quiz       *handler.QuizHandler
	Assignment *handler.AssignmentHandler
	Attempt    *handler.AttemptHandler
	Health     *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background goroutines owned by middlewares such as the login rate limiter.
func SetupRouter(
	ctx context.Context,
	auth middleware.TokenValidator,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log and error envelopes can carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(logger.RequestLogger(log, response.ContextKeyRequestID))
	router.Use(metrics.Middleware())

	// promhttp negotiates its own gzip.
	brotliCfg := middleware.DefaultBrotliConfig
	brotliCfg.Skipper = func(c *gin.Context) bool { return c.Request.URL.Path == "/metrics" }
	router.Use(middleware.BrotliWithConfig(brotliCfg))

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api/v1")
	api.Use(middleware.NoStore())

	// ─── 1. Auth Group (login is public and rate limited) ──────────────
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, ctx.Done())
	authAPI := api.Group("/auth")
	{
		authAPI.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
		authAPI.GET("/me", middleware.RequireJWT(auth), handlers.Auth.Me)
	}

	authors := middleware.RequireRole(model.RoleTeacher, model.RoleAdmin)
	students := middleware.RequireRole(model.RoleStudent)

	// ─── 2. Quiz Group (JWT + role) ────────────────────────────────────
	quizAPI := api.Group("/quizzes")
	quizAPI.Use(middleware.RequireJWT(auth))
	{
		quizAPI.GET("", middleware.RequireRole(model.RoleAdmin), handlers.Quiz.ListQuizzes)
		quizAPI.GET("/my-quizzes", middleware.RequireRole(model.RoleTeacher), handlers.Quiz.ListMyQuizzes)
		quizAPI.GET("/assigned", students, handlers.Assignment.ListAssigned)
		quizAPI.GET("/my-attempts", students, handlers.Attempt.ListMyAttempts)

		quizAPI.POST("", authors, handlers.Quiz.CreateQuiz)
		quizAPI.GET("/:id", handlers.Quiz.GetQuiz)
		quizAPI.PUT("/:id", authors, handlers.Quiz.UpdateQuiz)
		quizAPI.DELETE("/:id", authors, handlers.Quiz.DeleteQuiz)
		quizAPI.PATCH("/:id/publish", authors, handlers.Quiz.PublishQuiz)
		quizAPI.PATCH("/:id/unpublish", authors, handlers.Quiz.UnpublishQuiz)

		// Assignment management
		quizAPI.GET("/:id/assignments", authors, handlers.Assignment.ListQuizAssignments)
		quizAPI.POST("/:id/assign", authors, handlers.Assignment.AssignQuiz)
		quizAPI.DELETE("/:id/assignments/:student_id", authors, handlers.Assignment.RemoveAssignment)
		quizAPI.GET("/:id/results", authors, handlers.Attempt.GetQuizResults)
		quizAPI.PATCH("/assignments/:assignment_id/reset-attempts", authors, handlers.Attempt.ResetAttempts)

		// Attempts
		quizAPI.POST("/assignments/:assignment_id/attempt", students, handlers.Attempt.StartAttempt)
		quizAPI.GET("/assignments/:assignment_id/result", students, handlers.Attempt.GetAssignmentResult)
		quizAPI.GET("/attempts/:attempt_id/details", students, handlers.Attempt.GetAttemptDetails)
		quizAPI.POST("/attempts/:attempt_id/submit", students, handlers.Attempt.SubmitAttempt)
		quizAPI.PATCH("/attempts/:attempt_id/grade", authors, handlers.Attempt.GradeAttempt)
	}

	// ─── 3. Admin Group ────────────────────────────────────────────────
	adminAPI := api.Group("/admin")
	adminAPI.Use(middleware.RequireJWT(auth), middleware.RequireRole(model.RoleAdmin))
	{
		adminAPI.GET("/system", handlers.Health.SystemStatus)
	}

	return router
}
