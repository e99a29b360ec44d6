package handlers

import (
	"fmt"
	"time"

	"canvas/internal/room"
	"canvas/internal/user"
)

const cursorInterval = 33 * time.Millisecond

// CursorHandler handles cursor position update messages
type CursorHandler struct {
	sessionMgr  SessionProvider
	broadcaster Broadcaster
}

func NewCursorHandler(sessionMgr SessionProvider, broadcaster Broadcaster) *CursorHandler {
	return &CursorHandler{
		sessionMgr:  sessionMgr,
		broadcaster: broadcaster,
	}
}

// Handle processes cursor messages with server-side throttling (~30fps)
func (h *CursorHandler) Handle(rm *room.Room, u *user.User, data map[string]interface{}) error {
	now := time.Now()
	lastCursorTime, exists := h.sessionMgr.LastCursor(u.ID)
	if !exists {
		return fmt.Errorf("session not found")
	}

	if !lastCursorTime.IsZero() && now.Sub(lastCursorTime) < cursorInterval {
		return nil
	}
	h.sessionMgr.UpdateLastCursor(u.ID, now)

	data["color"] = rm.GetUserColor(u.ID)
	data["userId"] = u.ID

	return broadcast(h.broadcaster, rm, data, u.Connection)
}
