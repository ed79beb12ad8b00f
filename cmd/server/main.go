package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/config"
	"github.com/tutorlink/tutorlink-backend/internal/database"
	"github.com/tutorlink/tutorlink-backend/internal/handler"
	"github.com/tutorlink/tutorlink-backend/internal/logger"
	"github.com/tutorlink/tutorlink-backend/internal/metrics"
	"github.com/tutorlink/tutorlink-backend/internal/repository"
	"github.com/tutorlink/tutorlink-backend/internal/router"
	"github.com/tutorlink/tutorlink-backend/internal/service"
	"github.com/tutorlink/tutorlink-backend/internal/validator"
	"github.com/tutorlink/tutorlink-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting TutorLink quiz backend")

	// ─── Initialize Validator & Metrics ────────────────────────────────
	validator.Setup()
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	teacherRepo := repository.NewTeacherRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	paperCache := repository.NewPaperCache(rdb, cfg.PaperCacheTTL)

	// ─── Initialize Services ──────────────────────────────────────────
	retry := database.RetryPolicy{MaxAttempts: cfg.DBRetryAttempts, InitialInterval: cfg.DBRetryInitialDelay}

	directoryService := service.NewDirectoryService(studentRepo, teacherRepo, retry, log)
	authService := service.NewAuthService(cfg, userRepo, directoryService, log)
	quizService := service.NewQuizService(quizRepo, questionRepo, attemptRepo, directoryService, paperCache, retry, log)
	assignmentService := service.NewAssignmentService(quizRepo, questionRepo, assignmentRepo, directoryService, paperCache, retry, log)
	attemptService := service.NewAttemptService(quizRepo, questionRepo, assignmentRepo, attemptRepo, directoryService, paperCache, retry, nil, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, log),
		Quiz:       handler.NewQuizHandler(quizService, log),
		Assignment: handler.NewAssignmentHandler(assignmentService, log),
		Attempt:    handler.NewAttemptHandler(attemptService, log),
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, map[string]handler.StatsFunc{
			"postgres": handler.PostgresStats(pool),
			"redis":    handler.RedisStats(rdb),
		}, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	overdueWorker := worker.NewOverdueWorker(assignmentRepo, cfg.OverdueSweepInterval, log)
	go func() {
		defer close(workerDone)
		overdueWorker.Start(workerCtx)
	}()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Papers of published quizzes are cached before accepting traffic.
	if err := quizService.PrewarmPapers(ctx); err != nil {
		log.Warn().Err(err).Msg("Paper cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the overdue sweeper and the rate limiter cleanup.
	workerCancel()
	cancel()
	<-workerDone

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
