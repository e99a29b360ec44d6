package user

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var ErrNotConnected = errors.New("user has no connection")

// User represents a connected user
type User struct {
	ID         string
	Session    *UserSession
	Connection *websocket.Conn

	writeMu sync.Mutex // gorilla connections allow one concurrent writer
}

// WriteMessage: serialized write with a deadline
func (u *User) WriteMessage(messageType int, data []byte) error {
	if u.Connection == nil {
		return ErrNotConnected
	}

	u.writeMu.Lock()
	defer u.writeMu.Unlock()

	u.Connection.SetWriteDeadline(time.Now().Add(writeWait))
	return u.Connection.WriteMessage(messageType, data)
}

// Ping: keepalive ping sharing the write lock with regular messages
func (u *User) Ping() error {
	return u.WriteMessage(websocket.PingMessage, nil)
}

// Close: closes the underlying connection if any
func (u *User) Close() error {
	if u.Connection == nil {
		return nil
	}
	return u.Connection.Close()
}

// GenerateUUID generates a random UUID for user identification
func GenerateUUID() string {
	return uuid.NewString()
}

// GenerateSessionToken: 256 bit random token handed to the client for reconnects
func GenerateSessionToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
