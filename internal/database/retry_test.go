package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond}

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), fastPolicy, zerolog.Nop(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection reset by peer")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("connection refused")
	_, err := WithRetry(context.Background(), fastPolicy, zerolog.Nop(), func(ctx context.Context) (int, error) {
		calls++
		return 0, boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	notFound := fmt.Errorf("get quiz: %w", pgx.ErrNoRows)
	_, err := WithRetry(context.Background(), fastPolicy, zerolog.Nop(), func(ctx context.Context) (int, error) {
		calls++
		return 0, notFound
	})

	require.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Equal(t, 1, calls)
}

func TestWithRetryTreatsZeroAttemptsAsOne(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), RetryPolicy{}, zerolog.Nop(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsPermanent(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"no rows", pgx.ErrNoRows, true},
		{"cancelled", context.Canceled, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, false},
		{"too many connections", &pgconn.PgError{Code: "53300"}, false},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, false},
		{"network", errors.New("dial tcp: i/o timeout"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsPermanent(tc.err))
		})
	}
}
