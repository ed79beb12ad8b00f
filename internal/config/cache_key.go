package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuizPaperKey returns the cache key for a published quiz's student-facing paper
func (r *CacheKeyStruct) QuizPaperKey(quizID int64) string {
	return fmt.Sprintf("quiz:%d:paper", quizID)
}

var CacheKey = NewCacheKeyStruct()
