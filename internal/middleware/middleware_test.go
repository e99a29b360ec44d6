package middleware

import (
	"testing"
	"time"

	"canvas/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter int

func (c counter) ObjectCount() int { return int(c) }

func testLimits() *RateLimit {
	return NewRateLimit(config.LimitsConfig{
		MaxRoomSize:       2,
		MaxObjects:        3,
		MaxMessageSize:    100,
		MaxRooms:          1,
		MaxObjectDepth:    2,
		MaxObjectElements: 4,
		MessagesPerSecond: 30,
		BurstSize:         10,
	})
}

func TestRateLimit_CanAddObjects(t *testing.T) {
	rl := testLimits()

	assert.True(t, rl.CanAddObjects(counter(2), 1))
	assert.False(t, rl.CanAddObjects(counter(2), 2))
	assert.False(t, rl.CanAddObjects(counter(3), 1))
}

func TestRateLimit_ValidateMessageSize(t *testing.T) {
	rl := testLimits()

	assert.True(t, rl.ValidateMessageSize(100))
	assert.False(t, rl.ValidateMessageSize(101))
}

func TestRateLimit_ValidateObjectComplexity(t *testing.T) {
	rl := testLimits()

	tests := []struct {
		name    string
		data    map[string]interface{}
		wantErr bool
	}{
		{
			name: "flat",
			data: map[string]interface{}{"a": 1, "b": 2},
		},
		{
			name: "arrays do not count as keys",
			data: map[string]interface{}{"points": []interface{}{1, 2, 3, 4, 5, 6}},
		},
		{
			name:    "too deep",
			data:    map[string]interface{}{"a": map[string]interface{}{"b": map[string]interface{}{"c": 1}}},
			wantErr: true,
		},
		{
			name:    "too many keys",
			data:    map[string]interface{}{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rl.ValidateObjectComplexity(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIPRateLimit_Allow(t *testing.T) {
	iprl := NewIPRateLimitWith(time.Hour, 2)

	assert.True(t, iprl.Allow("10.0.0.1"))
	assert.True(t, iprl.Allow("10.0.0.1"))
	assert.False(t, iprl.Allow("10.0.0.1"))
	assert.True(t, iprl.Allow("10.0.0.2"), "limits are per IP")
}

func TestIPRateLimit_Cleanup(t *testing.T) {
	iprl := NewIPRateLimit()
	iprl.Allow("10.0.0.1")

	iprl.cleanup(time.Now().Add(30 * time.Minute))
	require.Len(t, iprl.limiters, 1)

	iprl.cleanup(time.Now().Add(2 * time.Hour))
	assert.Empty(t, iprl.limiters)
}
