package room

import (
	"errors"
	"sync"
	"time"

	"canvas/internal/editor"
	"canvas/internal/notify"
	"canvas/internal/user"
)

var ErrRoomFull = errors.New("room is full")

// Room: one shared canvas document and the users editing it
type Room struct {
	Code           string
	Editor         *editor.Editor
	Connections    map[string]*user.User
	UserColors     map[string]string // userID → color (room-specific)
	colorGenerator *user.ColorGenerator
	LastActive     time.Time
	CreatedAt      time.Time
	unsubscribe    func()
	mu             sync.RWMutex
}

func NewRoom(code string, ed *editor.Editor) *Room {
	now := time.Now()
	r := &Room{
		Code:           code,
		Editor:         ed,
		Connections:    make(map[string]*user.User),
		UserColors:     make(map[string]string),
		colorGenerator: user.NewColorGenerator(),
		LastActive:     now,
		CreatedAt:      now,
	}
	r.unsubscribe = ed.Notifier.Subscribe(func(notify.Event) {
		r.Touch()
	})
	return r
}

// Join: adds user to room and assigns a unique color
func (r *Room) Join(u *user.User, maxRoomSize int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, rejoin := r.Connections[u.ID]; !rejoin && len(r.Connections) >= maxRoomSize {
		return ErrRoomFull
	}

	r.Connections[u.ID] = u
	r.LastActive = time.Now()

	if _, hasColor := r.UserColors[u.ID]; !hasColor {
		r.UserColors[u.ID] = r.colorGenerator.NextColor()
	}
	return nil
}

// Leave: remove user from room (only if u is still the registered connection)
func (r *Room) Leave(u *user.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.Connections[u.ID]; ok && current == u {
		delete(r.Connections, u.ID)
	}
	r.LastActive = time.Now()
}

// Touch: marks the room active
func (r *Room) Touch() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.LastActive = time.Now()
}

// ObjectCount: objects on the room's canvas
func (r *Room) ObjectCount() int {
	return r.Editor.Scene.Len()
}

func (r *Room) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Connections)
}

// GetConnections: returns snapshot of current connections (for broadcasting)
func (r *Room) GetConnections() map[string]*user.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]*user.User, len(r.Connections))
	for k, v := range r.Connections {
		snapshot[k] = v
	}
	return snapshot
}

// RemoveConnection: removes user connection from room (cleanup after failed broadcast)
func (r *Room) RemoveConnection(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.Connections, userID)
}

// GetUserColor: returns the user's color in this room
func (r *Room) GetUserColor(userID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.UserColors[userID]
}

// NoteColor: default color for a sticky note created without one
func (r *Room) NoteColor() string {
	return r.colorGenerator.NextNoteColor()
}

// expired: 1 hour empty and idle, or 24 hours old
func (r *Room) expired(now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	empty := len(r.Connections) == 0
	inactive := now.Sub(r.LastActive) > 1*time.Hour
	old := now.Sub(r.CreatedAt) > 24*time.Hour
	return (inactive && empty) || old
}

// close detaches the room from its editor
func (r *Room) close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	r.Editor.Close()

	for _, u := range r.GetConnections() {
		u.Close()
	}
}
