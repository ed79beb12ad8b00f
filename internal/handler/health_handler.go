package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/response"
)

const healthCheckTimeout = 2 * time.Second

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// HealthHandler serves liveness and pool status endpoints.
type HealthHandler struct {
	checks    map[string]Check
	stats     map[string]StatsFunc
	startTime time.Time
	log       zerolog.Logger
}

// NewHealthHandler creates a HealthHandler. Checks and stats are keyed by
// dependency name.
func NewHealthHandler(checks map[string]Check, stats map[string]StatsFunc, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		stats:     stats,
		startTime: time.Now(),
		log:       log.With().Str("component", "health_handler").Logger(),
	}
}

// Health godoc
// GET /health
// Pings every dependency. Responds 503 when any of them is down.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	deps := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			deps[name] = "down"
			healthy = false
			continue
		}
		deps[name] = "up"
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	response.Success(c, code, gin.H{
		"status":       status,
		"uptime":       formatDuration(time.Since(h.startTime)),
		"dependencies": deps,
	})
}

// PoolStats is a point-in-time view of a connection pool.
type PoolStats struct {
	TotalConns int64 `json:"total_conns"`
	IdleConns  int64 `json:"idle_conns"`
	InUseConns int64 `json:"in_use_conns"`
	MaxConns   int64 `json:"max_conns,omitempty"`
	Acquires   int64 `json:"acquires"`
	WaitedFor  int64 `json:"waited_for"`
	Timeouts   int64 `json:"timeouts"`
	StaleConns int64 `json:"stale_conns,omitempty"`
}

// StatsFunc reports the current state of one pool.
type StatsFunc func() PoolStats

// PostgresStats reads pool figures from pgxpool.
func PostgresStats(pool *pgxpool.Pool) StatsFunc {
	return func() PoolStats {
		st := pool.Stat()
		return PoolStats{
			TotalConns: int64(st.TotalConns()),
			IdleConns:  int64(st.IdleConns()),
			InUseConns: int64(st.AcquiredConns()),
			MaxConns:   int64(st.MaxConns()),
			Acquires:   st.AcquireCount(),
			WaitedFor:  st.EmptyAcquireCount(),
			Timeouts:   st.CanceledAcquireCount(),
		}
	}
}

// RedisStats reads pool figures from a go-redis client.
func RedisStats(rdb *redis.Client) StatsFunc {
	return func() PoolStats {
		st := rdb.PoolStats()
		total, idle := int64(st.TotalConns), int64(st.IdleConns)
		return PoolStats{
			TotalConns: total,
			IdleConns:  idle,
			InUseConns: total - idle,
			MaxConns:   int64(rdb.Options().PoolSize),
			Acquires:   int64(st.Hits) + int64(st.Misses),
			WaitedFor:  int64(st.Misses),
			Timeouts:   int64(st.Timeouts),
			StaleConns: int64(st.StaleConns),
		}
	}
}

type systemStatus struct {
	Uptime     string               `json:"uptime"`
	Goroutines int                  `json:"goroutines"`
	GoVersion  string               `json:"go_version"`
	Pools      map[string]PoolStats `json:"pools"`
}

// SystemStatus godoc
// GET /api/v1/admin/system
// Connection pool usage for each backing store.
func (h *HealthHandler) SystemStatus(c *gin.Context) {
	s := systemStatus{
		Uptime:     formatDuration(time.Since(h.startTime)),
		Goroutines: runtime.NumGoroutine(),
		GoVersion:  runtime.Version(),
		Pools:      make(map[string]PoolStats, len(h.stats)),
	}
	for name, stats := range h.stats {
		s.Pools[name] = stats()
	}

	response.Success(c, http.StatusOK, gin.H{"system": s})
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
