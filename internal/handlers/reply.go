package handlers

import (
	"fmt"

	"canvas/internal/room"
	"canvas/internal/user"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// reply: message to the requesting user only
func reply(u *user.User, msg map[string]interface{}) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %v response: %w", msg["type"], err)
	}
	return u.WriteMessage(websocket.TextMessage, msgBytes)
}

// sendError: reports a failed action back to the requesting user
func sendError(u *user.User, action string, cause error) error {
	return reply(u, map[string]interface{}{
		"type":    "error",
		"action":  action,
		"message": cause.Error(),
	})
}

// replyError: sendError, then hands cause back to the read loop for logging
func replyError(u *user.User, action string, cause error) error {
	if err := sendError(u, action, cause); err != nil {
		return err
	}
	return cause
}

// broadcast: message to the room, skipping sender when given
func broadcast(b Broadcaster, rm *room.Room, msg map[string]interface{}, sender *websocket.Conn) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal broadcast message: %w", err)
	}
	b.Broadcast(rm, msgBytes, sender)
	return nil
}
