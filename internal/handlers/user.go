package handlers

import (
	"canvas/internal/user"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// HandleGetUserID: processes getUserId messages and returns the user ID
func (h *UserHandler) HandleGetUserID(u *user.User) error {
	return reply(u, map[string]interface{}{
		"type":   "userId",
		"userId": u.ID,
	})
}
