package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canvas/internal/actions"
	"canvas/internal/config"
	"canvas/internal/editor"
	"canvas/internal/generation"
	"canvas/internal/handlers"
	"canvas/internal/logger"
	"canvas/internal/middleware"
	"canvas/internal/object"
	"canvas/internal/remote"
	"canvas/internal/room"
	"canvas/internal/user"
	transport "canvas/internal/websocket"
)

const cleanupInterval = 15 * time.Minute

func main() {
	cfg := config.Load()

	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limits := middleware.NewRateLimit(cfg.Limits)
	ipRateLimiter := middleware.NewIPRateLimit()
	sessionMgr := user.NewSessionManager(limits.MessagesPerSecond, limits.BurstSize)

	// export downloads follow user-supplied URLs and must not reach internal hosts
	fetcher := remote.New(cfg.Generation.Timeout, cfg.Generation.MaxRetries, remote.WithPublicOnly())
	var generator actions.Generator
	if cfg.Generation.URL != "" {
		generator = generation.NewClient(cfg.Generation.URL, remote.New(cfg.Generation.Timeout, cfg.Generation.MaxRetries))
	} else {
		log.Warn("Main", "GENERATION_URL not set, generate variation disabled", nil)
	}

	newEditor := func() (*editor.Editor, error) {
		return editor.New(editor.Options{
			HistoryCapacity: cfg.History.Capacity,
			Raster: actions.RasterOptions{
				Width:      cfg.Export.Width,
				Height:     cfg.Export.Height,
				Background: cfg.Export.Background,
			},
			Generator: generator,
			Fetcher:   fetcher,
		}, log)
	}

	broadcaster := room.NewBroadcaster(log)
	synchronizer := room.NewSynchronizer(broadcaster)
	roomManager := room.NewManager(newEditor, synchronizer, limits, log)
	msgRouter := handlers.NewMessageRouter(object.NewValidator(), limits, sessionMgr, broadcaster, synchronizer, log)
	authenticator := transport.NewAuthenticator(sessionMgr, log)

	server := transport.NewServer(
		cfg.App.Domains,
		ipRateLimiter,
		limits,
		sessionMgr,
		roomManager,
		msgRouter,
		authenticator,
		log,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWebSocket)

	go cleanup(ctx, roomManager, sessionMgr, ipRateLimiter)

	httpServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("Main", "WebSocket server started", map[string]interface{}{"port": cfg.App.Port})
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Main", "Error starting server", map[string]interface{}{"error": err})
		log.Sync()
		os.Exit(1)
	}
}

// cleanup: periodically drops expired rooms, sessions and IP limiters
func cleanup(ctx context.Context, rooms *room.Manager, sessions *user.SessionManager, ips *middleware.IPRateLimit) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rooms.Cleanup()
			sessions.Cleanup()
			ips.Cleanup()
		}
	}
}
