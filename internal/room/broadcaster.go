package room

import (
	"sync"

	"canvas/internal/logger"
	"canvas/internal/user"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc/pool"
)

const maxBroadcastWriters = 16

// RoomConnections: minimum interface for broadcasting
type RoomConnections interface {
	GetConnections() map[string]*user.User
	RemoveConnection(userID string)
}

// Broadcaster: handles broadcasting messages to room users
type Broadcaster struct {
	log logger.ILogger
}

func NewBroadcaster(log logger.ILogger) *Broadcaster {
	if log == nil {
		log = logger.NewNop()
	}
	return &Broadcaster{log: log}
}

// Broadcast: sends a message to all users in a room except sender (nil sends to everyone).
// Users whose write fails are dropped from the room and disconnected.
func (b *Broadcaster) Broadcast(rm RoomConnections, msg []byte, sender *websocket.Conn) {
	connections := rm.GetConnections()

	var mu sync.Mutex
	var failedUsers []*user.User

	p := pool.New().WithMaxGoroutines(maxBroadcastWriters)
	for _, u := range connections {
		if sender != nil && u.Connection == sender {
			continue
		}
		p.Go(func() {
			if err := u.WriteMessage(websocket.TextMessage, msg); err != nil {
				b.log.Warn("Broadcaster", "Broadcast failed", map[string]interface{}{
					"user_id": u.ID,
					"error":   err.Error(),
				})
				mu.Lock()
				failedUsers = append(failedUsers, u)
				mu.Unlock()
			}
		})
	}
	p.Wait()

	for _, u := range failedUsers {
		rm.RemoveConnection(u.ID)
		u.Close()
	}
}
