package handlers

import (
	"context"
	"fmt"

	"canvas/internal/logger"
	"canvas/internal/middleware"
	internalObject "canvas/internal/object"
	"canvas/internal/room"
	internalUser "canvas/internal/user"

	json "github.com/goccy/go-json"
)

// MessageRouter routes incoming messages to appropriate handlers
type MessageRouter struct {
	objectHandler *ObjectHandler
	editorHandler *EditorHandler
	cursorHandler *CursorHandler
	userHandler   *UserHandler
}

func NewMessageRouter(
	validator *internalObject.Validator,
	config *middleware.RateLimit,
	sessionMgr SessionProvider,
	broadcaster Broadcaster,
	synchronizer Synchronizer,
	log logger.ILogger,
) *MessageRouter {
	if log == nil {
		log = logger.NewNop()
	}
	return &MessageRouter{
		objectHandler: NewObjectHandler(validator, config, broadcaster, synchronizer),
		editorHandler: NewEditorHandler(broadcaster, synchronizer, log),
		cursorHandler: NewCursorHandler(sessionMgr, broadcaster),
		userHandler:   NewUserHandler(),
	}
}

// Route: process a message via appropriate handler
func (mr *MessageRouter) Route(ctx context.Context, rm *room.Room, u *internalUser.User, msg []byte) error {
	var data map[string]interface{}
	if err := json.Unmarshal(msg, &data); err != nil {
		return fmt.Errorf("unmarshal base message: %w", err)
	}

	messageType, ok := data["type"].(string)
	if !ok {
		return fmt.Errorf("missing message type")
	}

	switch messageType {
	case "getUserId":
		return mr.userHandler.HandleGetUserID(u)
	case "objectAdded":
		return mr.objectHandler.HandleAdded(rm, u, data)
	case "objectUpdated":
		return mr.objectHandler.HandleUpdated(rm, u, data)
	case "objectDeleted":
		return mr.objectHandler.HandleDeleted(rm, u, data)
	case "select":
		return mr.editorHandler.HandleSelect(rm, u, data)
	case "undo":
		return mr.editorHandler.HandleUndo(rm, u)
	case "redo":
		return mr.editorHandler.HandleRedo(rm, u)
	case "duplicate":
		return mr.editorHandler.HandleDuplicate(rm, u)
	case "export":
		return mr.editorHandler.HandleExport(ctx, rm, u)
	case "generateVariation":
		return mr.editorHandler.HandleGenerateVariation(ctx, rm, u, data)
	case "cursor":
		return mr.cursorHandler.Handle(rm, u, data)
	default:
		return fmt.Errorf("unknown message type: %s", internalObject.SanitizeString(messageType))
	}
}
