package room

import (
	"fmt"

	"canvas/internal/user"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Synchronizer: sends full room state to users
type Synchronizer struct {
	broadcaster *Broadcaster
}

func NewSynchronizer(broadcaster *Broadcaster) *Synchronizer {
	return &Synchronizer{broadcaster: broadcaster}
}

// SyncNewUser sends the current canvas (all objects, bottom first) to a newly joined user
func (s *Synchronizer) SyncNewUser(rm *Room, u *user.User) error {
	msgBytes, err := syncMessage(rm)
	if err != nil {
		return err
	}

	if err := u.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
		return fmt.Errorf("failed to send sync message: %w", err)
	}
	return nil
}

// SyncAll: full state to every user in the room. Used after undo/redo and composed actions.
func (s *Synchronizer) SyncAll(rm *Room) error {
	msgBytes, err := syncMessage(rm)
	if err != nil {
		return err
	}

	s.broadcaster.Broadcast(rm, msgBytes, nil)
	return nil
}

// HistoryState: undo/redo availability to every user in the room
func (s *Synchronizer) HistoryState(rm *Room) error {
	msg := historyFields(rm)
	msg["type"] = "history"
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal history message: %w", err)
	}

	s.broadcaster.Broadcast(rm, msgBytes, nil)
	return nil
}

func syncMessage(rm *Room) ([]byte, error) {
	objs := rm.Editor.Scene.Objects()
	objects := make([]map[string]interface{}, 0, len(objs))
	for _, obj := range objs {
		m, err := obj.ToMap()
		if err != nil {
			return nil, err
		}
		objects = append(objects, m)
	}

	selected := rm.Editor.Scene.Selected()
	selectedIDs := make([]string, 0, len(selected))
	for _, obj := range selected {
		selectedIDs = append(selectedIDs, obj.ID)
	}

	msg := historyFields(rm)
	msg["type"] = "sync"
	msg["objects"] = objects
	msg["selection"] = selectedIDs
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sync message: %w", err)
	}
	return msgBytes, nil
}

// historyFields: undo/redo availability and step counts; the floor entry is not a step
func historyFields(rm *Room) map[string]interface{} {
	undo, redo := rm.Editor.History.Depth()
	return map[string]interface{}{
		"canUndo":   undo > 1,
		"canRedo":   redo > 0,
		"undoSteps": max(undo-1, 0),
		"redoSteps": redo,
	}
}
