package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// RetryPolicy bounds the read retry wrapper.
type RetryPolicy struct {
	// MaxAttempts counts the first try; values below 1 are treated as 1.
	MaxAttempts     int
	InitialInterval time.Duration
}

// DefaultRetryPolicy retries three times starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialInterval: time.Second}
}

// WithRetry runs op with exponential backoff and jitter until it succeeds, returns a
// permanent error, or the policy is exhausted. Only wrap reads: writes are not idempotent.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, log zerolog.Logger, op func(ctx context.Context) (T, error)) (T, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.InitialInterval
	exp.Multiplier = 2
	exp.RandomizationFactor = 0.5
	exp.MaxElapsedTime = 0
	exp.Reset()

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(policy.MaxAttempts-1)), ctx)

	attempt := 0
	return backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err != nil && IsPermanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, b, func(err error, next time.Duration) {
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", policy.MaxAttempts).
			Dur("retry_in", next).
			Msg("Database read failed, retrying")
	})
}

// IsPermanent reports whether err will not go away by retrying: missing rows,
// cancelled contexts, and SQL errors outside the connection/resource classes.
func IsPermanent(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "53"), // insufficient resources
			pgErr.Code == "57P01",               // admin shutdown
			pgErr.Code == "40001",               // serialization failure
			pgErr.Code == "40P01":               // deadlock detected
			return false
		}
		return true
	}

	return false
}
