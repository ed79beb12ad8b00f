package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, parseOrigins(" http://a.test, ,http://b.test "))
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_RETRY_ATTEMPTS", "5")
	t.Setenv("OVERDUE_SWEEP_SECONDS", "0")
	t.Setenv("MAX_DB_CONNS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 5, cfg.DBRetryAttempts)
	assert.Equal(t, time.Duration(0), cfg.OverdueSweepInterval)
	assert.Equal(t, int32(16), cfg.MaxDBConns)
}
