package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tutorlink/tutorlink-backend/internal/config"
	"github.com/tutorlink/tutorlink-backend/internal/model"
)

// PaperCache stores student-facing quiz papers in Redis.
type PaperCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPaperCache creates a new PaperCache. A ttl of zero keeps papers until invalidated.
func NewPaperCache(rdb *redis.Client, ttl time.Duration) *PaperCache {
	return &PaperCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached paper, or ErrNotFound on a miss.
func (c *PaperCache) Get(ctx context.Context, quizID int64) (*model.QuizPaper, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.QuizPaperKey(quizID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}

	var paper model.QuizPaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("unmarshal paper: %w", err)
	}
	return &paper, nil
}

// Set writes a paper, replacing any previous copy.
func (c *PaperCache) Set(ctx context.Context, paper *model.QuizPaper) error {
	data, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}
	if err := c.rdb.Set(ctx, config.CacheKey.QuizPaperKey(paper.QuizID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set paper: %w", err)
	}
	return nil
}

// Delete invalidates a quiz's cached paper.
func (c *PaperCache) Delete(ctx context.Context, quizID int64) error {
	return c.rdb.Del(ctx, config.CacheKey.QuizPaperKey(quizID)).Err()
}
