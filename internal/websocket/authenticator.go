package transport

import (
	"fmt"
	"time"

	"canvas/internal/logger"
	"canvas/internal/user"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Authenticator: handles WebSocket authentication
type Authenticator struct {
	sessionMgr *user.SessionManager
	log        logger.ILogger
}

func NewAuthenticator(sessionMgr *user.SessionManager, log logger.ILogger) *Authenticator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Authenticator{
		sessionMgr: sessionMgr,
		log:        log,
	}
}

// AuthResult contains the results of authentication
type AuthResult struct {
	UserID    string
	Session   *user.UserSession
	IsNewUser bool
}

// Authenticate: reads the first message of a new connection, which must be
// {"type":"authenticate","token":...}. A known token resumes its session; an empty or
// unknown token starts a new user.
func (a *Authenticator) Authenticate(conn *websocket.Conn, timeout time.Duration) (*AuthResult, error) {
	conn.SetReadDeadline(time.Now().Add(timeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to receive auth message: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	return a.authenticate(msg)
}

func (a *Authenticator) authenticate(msg []byte) (*AuthResult, error) {
	var authMsg struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}

	if err := json.Unmarshal(msg, &authMsg); err != nil {
		return nil, fmt.Errorf("invalid auth message format: %w", err)
	}

	if authMsg.Type != "authenticate" {
		return nil, fmt.Errorf("expected authenticate message, got: %s", authMsg.Type)
	}

	if authMsg.Token != "" {
		if session, valid := a.sessionMgr.GetSessionByToken(authMsg.Token); valid {
			a.sessionMgr.Touch(session.UserID)
			a.log.Info("Authenticator", "Returning user authenticated", map[string]interface{}{"user_id": session.UserID})
			return &AuthResult{UserID: session.UserID, Session: session}, nil
		}
		a.log.Debug("Authenticator", "Invalid or expired token, treating as new user", nil)
	}

	userID := user.GenerateUUID()
	session := a.sessionMgr.GetOrCreate(userID, user.GenerateSessionToken())

	a.log.Info("Authenticator", "New user created", map[string]interface{}{"user_id": userID})
	return &AuthResult{UserID: userID, Session: session, IsNewUser: true}, nil
}
