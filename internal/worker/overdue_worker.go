package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/metrics"
)

// OverdueMarker flips open assignments past their due date to overdue.
// Implemented by repository.AssignmentRepository.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// OverdueWorker periodically sweeps assignments whose due date has passed.
type OverdueWorker struct {
	store    OverdueMarker
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewOverdueWorker creates a new OverdueWorker.
func NewOverdueWorker(store OverdueMarker, interval time.Duration, log zerolog.Logger) *OverdueWorker {
	return &OverdueWorker{
		store:    store,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "overdue_worker").Logger(),
	}
}

// Start sweeps once, then on every tick until ctx is cancelled. Call in a goroutine.
// A non-positive interval disables the worker.
func (w *OverdueWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info().Msg("Worker disabled")
		return
	}

	w.log.Info().Dur("interval", w.interval).Msg("Worker started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *OverdueWorker) sweep(ctx context.Context) {
	n, err := w.store.MarkOverdue(ctx, w.now())
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Overdue sweep failed")
		}
		return
	}
	if n > 0 {
		metrics.OverdueMarked.Add(float64(n))
		w.log.Info().Int64("count", n).Msg("Assignments marked overdue")
	}
}
