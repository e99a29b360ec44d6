package room

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"canvas/internal/editor"
	"canvas/internal/logger"
	"canvas/internal/middleware"
	"canvas/internal/user"
)

var (
	ErrRoomCodeMissing = errors.New("room code missing")
	ErrServerFull      = errors.New("server at maximum room capacity")
)

// EditorFactory builds the editor backing a new room
type EditorFactory func() (*editor.Editor, error)

// Manager manages all rooms in the application
type Manager struct {
	rooms        map[string]*Room
	newEditor    EditorFactory
	synchronizer *Synchronizer
	limits       *middleware.RateLimit
	log          logger.ILogger
	mu           sync.RWMutex
}

func NewManager(newEditor EditorFactory, synchronizer *Synchronizer, limits *middleware.RateLimit, log logger.ILogger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{
		rooms:        make(map[string]*Room),
		newEditor:    newEditor,
		synchronizer: synchronizer,
		limits:       limits,
		log:          log,
	}
}

// CreateRoom: returns the room for roomCode, creating it within the room limit
func (rm *Manager) CreateRoom(roomCode string) (*Room, error) {
	if roomCode == "" {
		return nil, ErrRoomCodeMissing
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if room, exists := rm.rooms[roomCode]; exists {
		return room, nil
	}

	if len(rm.rooms) >= rm.limits.MaxRooms {
		return nil, ErrServerFull
	}

	ed, err := rm.newEditor()
	if err != nil {
		return nil, fmt.Errorf("create editor: %w", err)
	}

	room := NewRoom(roomCode, ed)
	rm.rooms[roomCode] = room

	rm.log.Info("RoomManager", "Room created", map[string]interface{}{"room": roomCode})
	return room, nil
}

// JoinRoom adds a user to a room, creating it if necessary, and syncs the canvas to them
func (rm *Manager) JoinRoom(roomCode string, session *user.UserSession, u *user.User) (*Room, error) {
	room, err := rm.CreateRoom(roomCode)
	if err != nil {
		return nil, err
	}

	if err := room.Join(u, rm.limits.MaxRoomSize); err != nil {
		return nil, err
	}

	if session != nil {
		session.LastRoom = roomCode
	}

	if err := rm.synchronizer.SyncNewUser(room, u); err != nil {
		room.Leave(u)
		return nil, err
	}
	return room, nil
}

// Cleanup removes expired rooms
func (rm *Manager) Cleanup() {
	rm.cleanup(time.Now())
}

func (rm *Manager) cleanup(now time.Time) {
	rm.mu.Lock()
	var expired []*Room
	for code, room := range rm.rooms {
		if room.expired(now) {
			delete(rm.rooms, code)
			expired = append(expired, room)
		}
	}
	rm.mu.Unlock()

	for _, room := range expired {
		room.close()
		rm.log.Info("RoomManager", "Room expired", map[string]interface{}{"room": room.Code})
	}
}

// GetRoom: checks if a room exists and returns it
func (rm *Manager) GetRoom(roomCode string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	room, exists := rm.rooms[roomCode]
	return room, exists
}

func (rm *Manager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return len(rm.rooms)
}
