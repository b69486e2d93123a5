package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FANOUT_CALL_TIMEOUT", "")
	t.Setenv("FANOUT_CONCURRENCY", "")
	t.Setenv("REALTIME_DRIVER", "")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.FanOutCallTimeout)
	assert.Equal(t, 8, cfg.FanOutConcurrency)
	assert.Equal(t, "memory", cfg.RealtimeDriver)
	assert.Equal(t, "0 8 * * *", cfg.DailyTaskCron)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FANOUT_CALL_TIMEOUT", "750ms")
	t.Setenv("FANOUT_CONCURRENCY", "2")
	t.Setenv("LOG_CONSOLE", "false")
	t.Setenv("TIMEZONE", "Asia/Ho_Chi_Minh")

	cfg := Load()

	assert.Equal(t, 750*time.Millisecond, cfg.FanOutCallTimeout)
	assert.Equal(t, 2, cfg.FanOutConcurrency)
	assert.False(t, cfg.LogConsole)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Location().String())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("FANOUT_CALL_TIMEOUT", "soon")
	t.Setenv("FANOUT_CONCURRENCY", "-3")
	t.Setenv("TIMEZONE", "Nowhere/Special")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.FanOutCallTimeout)
	assert.Equal(t, 8, cfg.FanOutConcurrency)
	assert.Equal(t, time.UTC, cfg.Location())
}
