package user

import (
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorGenerator_DistinctColors(t *testing.T) {
	cg := NewColorGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		c := cg.NextColor()
		_, err := colorful.Hex(c)
		require.NoError(t, err)
		assert.False(t, seen[c], "color %s repeated", c)
		seen[c] = true
	}
}

func TestColorGenerator_NoteColorsAreLight(t *testing.T) {
	cg := NewColorGenerator()

	for i := 0; i < 5; i++ {
		c, err := colorful.Hex(cg.NextNoteColor())
		require.NoError(t, err)
		_, _, l := c.Hsl()
		assert.Greater(t, l, 0.7)
	}
}

func TestSessionManager_TokenLifecycle(t *testing.T) {
	sm := NewSessionManager(30, 10)

	session := sm.GetOrCreate("user-1", "token-1")
	assert.Equal(t, "token-1", session.SessionToken)
	assert.NotNil(t, session.RateLimiter)

	userID, ok := sm.ValidateToken("token-1")
	require.True(t, ok)
	assert.Equal(t, "user-1", userID)

	again := sm.GetOrCreate("user-1", "other")
	assert.Same(t, session, again)

	got, ok := sm.GetSessionByToken("token-1")
	require.True(t, ok)
	assert.Same(t, session, got)

	_, ok = sm.ValidateToken("unknown")
	assert.False(t, ok)
}

func TestSessionManager_GeneratesTokenWhenMissing(t *testing.T) {
	sm := NewSessionManager(30, 10)

	session := sm.GetOrCreate("user-1", "")
	assert.Len(t, session.SessionToken, 64)

	_, ok := sm.ValidateToken(session.SessionToken)
	assert.True(t, ok)
}

func TestSessionManager_Cleanup(t *testing.T) {
	sm := NewSessionManager(30, 10)
	sm.GetOrCreate("stale", "t1")
	sm.GetOrCreate("fresh", "t2")

	sm.mu.Lock()
	sm.sessions["stale"].LastSeen = time.Now().Add(-2 * time.Hour)
	sm.mu.Unlock()

	sm.Cleanup()

	assert.Equal(t, 1, sm.Count())
	_, ok := sm.ValidateToken("t1")
	assert.False(t, ok)
	_, ok = sm.ValidateToken("t2")
	assert.True(t, ok)
}

func TestSessionManager_Cursor(t *testing.T) {
	sm := NewSessionManager(30, 10)
	sm.GetOrCreate("user-1", "")

	last, ok := sm.LastCursor("user-1")
	require.True(t, ok)
	assert.True(t, last.IsZero())

	now := time.Now()
	sm.UpdateLastCursor("user-1", now)
	last, _ = sm.LastCursor("user-1")
	assert.Equal(t, now, last)

	_, ok = sm.LastCursor("nobody")
	assert.False(t, ok)
}

func TestUser_WriteWithoutConnection(t *testing.T) {
	u := &User{ID: "u"}
	assert.ErrorIs(t, u.WriteMessage(1, []byte("x")), ErrNotConnected)
	assert.NoError(t, u.Close())
}
