package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_ModuleAndDetails(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Info("History", "snapshot recorded", map[string]interface{}{"depth": 2})
	l.Warn("Room", "broadcast failed", nil)

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "snapshot recorded", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "History", ctx["module"])
	assert.Equal(t, map[string]interface{}{"depth": 2}, ctx["details"])

	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, map[string]interface{}{}, entries[1].ContextMap()["details"])
}

func TestZapLogger_ErrorAttachesCause(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Error("Actions", "generation failed", map[string]interface{}{"error": errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Debug("Test", "ignored", nil)
	assert.NoError(t, l.Sync())
}
