package handlers

import (
	"time"

	"canvas/internal/room"

	"github.com/gorilla/websocket"
)

// Broadcaster defines the broadcast operation for sending messages to room users
type Broadcaster interface {
	Broadcast(rm room.RoomConnections, msg []byte, sender *websocket.Conn)
}

// SessionProvider: cursor throttling state per user session
type SessionProvider interface {
	LastCursor(userID string) (time.Time, bool)
	UpdateLastCursor(userID string, t time.Time)
}

// Synchronizer pushes room-wide state after operations that change more than one object
type Synchronizer interface {
	SyncAll(rm *room.Room) error
	HistoryState(rm *room.Room) error
}
