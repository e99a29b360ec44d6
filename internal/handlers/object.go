package handlers

import (
	"errors"
	"fmt"

	"canvas/internal/middleware"
	"canvas/internal/object"
	"canvas/internal/room"
	"canvas/internal/user"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrRoomAtCapacity = errors.New("room at maximum object capacity")

// ObjectHandler: handles object-related messages (add, update, delete)
type ObjectHandler struct {
	validator    *object.Validator
	config       *middleware.RateLimit
	broadcaster  Broadcaster
	synchronizer Synchronizer
}

func NewObjectHandler(validator *object.Validator, config *middleware.RateLimit, broadcaster Broadcaster, synchronizer Synchronizer) *ObjectHandler {
	return &ObjectHandler{
		validator:    validator,
		config:       config,
		broadcaster:  broadcaster,
		synchronizer: synchronizer,
	}
}

// HandleAdded: objectAdded messages
func (h *ObjectHandler) HandleAdded(rm *room.Room, u *user.User, data map[string]interface{}) error {
	if !h.config.CanAddObjects(rm, 1) {
		return ErrRoomAtCapacity
	}

	obj, err := h.decode(data)
	if err != nil {
		return err
	}

	// a server-assigned id has to reach the sender too
	sender := u.Connection
	if obj.ID == "" {
		obj.ID = uuid.NewString()
		sender = nil
	}
	obj.UserID = u.ID
	if obj.Kind == object.KindNote && obj.Note != nil && obj.Note.Color == "" {
		obj.Note.Color = rm.NoteColor()
	}

	sanitized, err := h.validator.ValidateAndSanitize(obj)
	if err != nil {
		return fmt.Errorf("object validation failed: %w", err)
	}

	if err := rm.Editor.Scene.Add(sanitized); err != nil {
		return err
	}
	return h.publish(rm, u, "objectAdded", sanitized, sender)
}

// HandleUpdated: objectUpdated messages. The kind of an object cannot change.
func (h *ObjectHandler) HandleUpdated(rm *room.Room, u *user.User, data map[string]interface{}) error {
	obj, err := h.decode(data)
	if err != nil {
		return err
	}

	existing, ok := rm.Editor.Scene.Get(obj.ID)
	if !ok {
		return fmt.Errorf("object not found: %s", object.SanitizeString(obj.ID))
	}
	if existing.Kind != obj.Kind {
		return fmt.Errorf("object %s is a %s, not a %s", existing.ID, existing.Kind, obj.Kind)
	}
	obj.UserID = existing.UserID

	sanitized, err := h.validator.ValidateAndSanitize(obj)
	if err != nil {
		return fmt.Errorf("object validation failed: %w", err)
	}

	if err := rm.Editor.Scene.Replace(sanitized); err != nil {
		return err
	}
	return h.publish(rm, u, "objectUpdated", sanitized, u.Connection)
}

// HandleDeleted: objectDeleted messages
func (h *ObjectHandler) HandleDeleted(rm *room.Room, u *user.User, data map[string]interface{}) error {
	objectID, ok := data["objectId"].(string)
	if !ok {
		return fmt.Errorf("missing objectId")
	}

	if err := rm.Editor.Scene.Remove(objectID); err != nil {
		return err
	}

	if err := broadcast(h.broadcaster, rm, map[string]interface{}{
		"type":     "objectDeleted",
		"objectId": object.SanitizeString(objectID),
		"userId":   object.SanitizeString(u.ID),
	}, u.Connection); err != nil {
		return err
	}
	return h.synchronizer.HistoryState(rm)
}

func (h *ObjectHandler) decode(data map[string]interface{}) (*object.Object, error) {
	objectMsg, ok := data["object"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing object data")
	}

	if err := h.config.ValidateObjectComplexity(objectMsg); err != nil {
		return nil, err
	}

	obj, err := object.FromMap(objectMsg)
	if err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return obj, nil
}

func (h *ObjectHandler) publish(rm *room.Room, u *user.User, msgType string, obj *object.Object, sender *websocket.Conn) error {
	objectMsg, err := obj.ToMap()
	if err != nil {
		return err
	}

	if err := broadcast(h.broadcaster, rm, map[string]interface{}{
		"type":   msgType,
		"object": objectMsg,
		"userId": object.SanitizeString(u.ID),
	}, sender); err != nil {
		return err
	}
	return h.synchronizer.HistoryState(rm)
}
