package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 50, cfg.History.Capacity)
	assert.Equal(t, 1<<20, cfg.Limits.MaxMessageSize)
	assert.Equal(t, 60*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, "#ffffff", cfg.Export.Background)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("GO_ENV", "production")
	t.Setenv("DOMAINS", "https://a.example, https://b.example ,")
	t.Setenv("HISTORY_CAPACITY", "20")
	t.Setenv("MESSAGES_PER_SECOND", "12.5")
	t.Setenv("GENERATION_URL", "http://gen.local/api/multiply/generate")
	t.Setenv("GENERATION_TIMEOUT", "5s")

	cfg := Load()

	assert.Equal(t, "9000", cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.Domains)
	assert.Equal(t, 20, cfg.History.Capacity)
	assert.Equal(t, 12.5, cfg.Limits.MessagesPerSecond)
	assert.Equal(t, "http://gen.local/api/multiply/generate", cfg.Generation.URL)
	assert.Equal(t, 5*time.Second, cfg.Generation.Timeout)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_ROOMS", "lots")
	t.Setenv("GENERATION_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 100, cfg.Limits.MaxRooms)
	assert.Equal(t, 60*time.Second, cfg.Generation.Timeout)
}
