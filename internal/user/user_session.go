package user

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sessionTTL = 1 * time.Hour

// UserSession persists across disconnects
type UserSession struct {
	UserID           string
	SessionToken     string
	LastRoom         string
	LastSeen         time.Time
	LastCursorUpdate time.Time
	RateLimiter      *rate.Limiter
}

type SessionManager struct {
	sessions      map[string]*UserSession // userID -> session
	tokenToUserID map[string]string       // token -> userID
	limit         rate.Limit
	burst         int
	mu            sync.RWMutex
}

// NewSessionManager: messagesPerSecond and burst size apply to every session's limiter
func NewSessionManager(messagesPerSecond float64, burst int) *SessionManager {
	return &SessionManager{
		sessions:      make(map[string]*UserSession),
		tokenToUserID: make(map[string]string),
		limit:         rate.Limit(messagesPerSecond),
		burst:         burst,
	}
}

// GetOrCreate: gets an existing session or creates a new one with the given token
func (sm *SessionManager) GetOrCreate(userID, token string) *UserSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, exists := sm.sessions[userID]
	if exists {
		session.LastSeen = time.Now()
		return session
	}

	if token == "" {
		token = GenerateSessionToken()
	}
	session = &UserSession{
		UserID:       userID,
		SessionToken: token,
		LastSeen:     time.Now(),
		RateLimiter:  rate.NewLimiter(sm.limit, sm.burst),
	}
	sm.sessions[userID] = session
	sm.tokenToUserID[token] = userID
	return session
}

// ValidateToken: validate session token and returns the associated userID
func (sm *SessionManager) ValidateToken(token string) (string, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	userID, exists := sm.tokenToUserID[token]
	if !exists {
		return "", false
	}

	session, sessionExists := sm.sessions[userID]
	if !sessionExists {
		delete(sm.tokenToUserID, token)
		return "", false
	}

	session.LastSeen = time.Now()
	return userID, true
}

// GetSessionByToken: retrieve session by token
func (sm *SessionManager) GetSessionByToken(token string) (*UserSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	userID, exists := sm.tokenToUserID[token]
	if !exists {
		return nil, false
	}

	session, sessionExists := sm.sessions[userID]
	return session, sessionExists
}

// LastSeen: gets the last seen time for a user session
func (sm *SessionManager) LastSeen(userID string) (time.Time, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if session, exists := sm.sessions[userID]; exists {
		return session.LastSeen, true
	}
	return time.Time{}, false
}

// Touch: marks the session as seen now
func (sm *SessionManager) Touch(userID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[userID]; exists {
		session.LastSeen = time.Now()
	}
}

// LastCursor: gets the last cursor update time for a user session
func (sm *SessionManager) LastCursor(userID string) (time.Time, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if session, exists := sm.sessions[userID]; exists {
		return session.LastCursorUpdate, true
	}
	return time.Time{}, false
}

// UpdateLastCursor: updates the last cursor update time for a user session
func (sm *SessionManager) UpdateLastCursor(userID string, lastCursorUpdate time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[userID]; exists {
		session.LastCursorUpdate = lastCursorUpdate
	}
}

// Count: number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return len(sm.sessions)
}

// Cleanup: removes sessions inactive for an hour. Disconnected users keep their
// session until then so a reconnect with the same token resumes it.
func (sm *SessionManager) Cleanup() {
	sm.cleanup(time.Now())
}

func (sm *SessionManager) cleanup(now time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for userID, session := range sm.sessions {
		if now.Sub(session.LastSeen) > sessionTTL {
			delete(sm.tokenToUserID, session.SessionToken)
			delete(sm.sessions, userID)
		}
	}
}
