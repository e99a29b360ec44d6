package transport

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"canvas/internal/handlers"
	"canvas/internal/logger"
	"canvas/internal/middleware"
	"canvas/internal/room"
	"canvas/internal/user"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	authTimeout = 5 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10 // Send pings at 90% of pong deadline
)

// Server: the /ws endpoint and everything a connection needs
type Server struct {
	upgrader      websocket.Upgrader
	ipRateLimiter *middleware.IPRateLimit
	config        *middleware.RateLimit
	sessionMgr    *user.SessionManager
	roomManager   *room.Manager
	msgRouter     *handlers.MessageRouter
	authenticator *Authenticator
	log           logger.ILogger
}

func NewServer(
	allowedOrigins []string,
	ipRateLimiter *middleware.IPRateLimit,
	config *middleware.RateLimit,
	sessionMgr *user.SessionManager,
	roomManager *room.Manager,
	msgRouter *handlers.MessageRouter,
	authenticator *Authenticator,
	log logger.ILogger,
) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		ipRateLimiter: ipRateLimiter,
		config:        config,
		sessionMgr:    sessionMgr,
		roomManager:   roomManager,
		msgRouter:     msgRouter,
		authenticator: authenticator,
		log:           log,
	}
}

// originChecker: CORS for the upgrade. An empty allow list accepts everything (development).
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, domain := range allowed {
			if origin == strings.TrimSpace(domain) {
				return true
			}
		}
		return false
	}
}

// GetClientIP: extracts the client IP from RemoteAddr (headers can be spoofed)
func GetClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HandleWebSocket: upgrades HTTP to WebSocket, authenticates and joins the room
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)
	if !s.ipRateLimiter.Allow(clientIP) {
		s.log.Warn("WebSocket", "Rate limit exceeded for IP", map[string]interface{}{"ip": clientIP})
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	roomCode := r.URL.Query().Get("room")
	if roomCode == "" {
		http.Error(w, "room code missing", http.StatusBadRequest)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("WebSocket", "Failed to upgrade connection", map[string]interface{}{"error": err})
		return
	}
	defer conn.Close()

	authResult, err := s.authenticator.Authenticate(conn, authTimeout)
	if err != nil {
		s.log.Warn("WebSocket", "Authentication failed", map[string]interface{}{"error": err.Error()})
		return
	}

	u := &user.User{
		ID:         authResult.UserID,
		Session:    authResult.Session,
		Connection: conn,
	}

	if err := s.send(u, map[string]interface{}{
		"type":   "authenticated",
		"userId": u.ID,
		"token":  u.Session.SessionToken,
	}); err != nil {
		s.log.Error("WebSocket", "Failed to send auth response", map[string]interface{}{"error": err})
		return
	}

	rm, err := s.roomManager.JoinRoom(roomCode, u.Session, u)
	if err != nil {
		s.log.Warn("WebSocket", "Failed to join room", map[string]interface{}{
			"room":  roomCode,
			"error": err.Error(),
		})
		s.send(u, map[string]interface{}{"type": "error", "action": "join", "message": err.Error()})
		return
	}
	defer rm.Leave(u)

	if err := s.send(u, map[string]interface{}{
		"type":  "room_joined",
		"color": rm.GetUserColor(u.ID),
		"room":  roomCode,
	}); err != nil {
		s.log.Error("WebSocket", "Failed to send room joined response", map[string]interface{}{"error": err})
		return
	}

	s.log.Info("WebSocket", "User joined room", map[string]interface{}{
		"user_id": u.ID,
		"room":    roomCode,
		"new":     authResult.IsNewUser,
	})

	s.run(r.Context(), rm, u)
}

func (s *Server) send(u *user.User, msg map[string]interface{}) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return u.WriteMessage(websocket.TextMessage, msgBytes)
}

// run: message loop for one connection; returns when the connection dies
func (s *Server) run(ctx context.Context, rm *room.Room, u *user.User) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn := u.Connection
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		s.sessionMgr.Touch(u.ID)
		return nil
	})

	go s.keepAlive(ctx, u)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("WebSocket", "Connection closed unexpectedly", map[string]interface{}{
					"user_id": u.ID,
					"error":   err.Error(),
				})
			}
			return
		}

		if !s.config.ValidateMessageSize(len(msg)) {
			s.log.Warn("WebSocket", "Message too large", map[string]interface{}{"user_id": u.ID, "size": len(msg)})
			continue
		}

		if !u.Session.RateLimiter.Allow() {
			s.log.Debug("WebSocket", "Rate limit exceeded for user", map[string]interface{}{"user_id": u.ID})
			continue
		}

		s.sessionMgr.Touch(u.ID)
		if err := s.msgRouter.Route(ctx, rm, u, msg); err != nil {
			s.log.Warn("WebSocket", "Error handling message", map[string]interface{}{
				"user_id": u.ID,
				"error":   err.Error(),
			})
		}
	}
}

// keepAlive pings until ctx ends or a ping fails
func (s *Server) keepAlive(ctx context.Context, u *user.User) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := u.Ping(); err != nil {
				return
			}
		}
	}
}
