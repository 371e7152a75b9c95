package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/redplayer0/browser-chat/internal/chat"
)

// Server owns the chat core and its HTTP surface. All state is scoped to
// the instance; constructing two servers yields two independent chats.
type Server struct {
	log *slog.Logger
	cfg *Config

	registry    *chat.Registry
	broadcaster *chat.Broadcaster
	policy      *chat.AdmissionPolicy

	origins  *originPolicy
	upgrader websocket.Upgrader
	validate *validator.Validate

	http     *http.Server
	sessions sync.WaitGroup
}

// New assembles a server from its configuration.
func New(log *slog.Logger, cfg *Config) *Server {
	registry := chat.NewRegistry()
	origins := newOriginPolicy(log, cfg.AllowedOrigins)

	s := &Server{
		log:         log,
		cfg:         cfg,
		registry:    registry,
		broadcaster: chat.NewBroadcaster(log, cfg.HistoryLimit, cfg.SendBuffer),
		policy:      chat.NewAdmissionPolicy(registry, cfg.RoomCapacity),
		origins:     origins,
		validate:    validator.New(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     origins.check,
	}
	s.http = &http.Server{
		Addr:        cfg.Port,
		Handler:     s.routes(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Start listens on the configured port and serves until Shutdown.
func (s *Server) Start() error {
	s.log.Info("server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains the HTTP listener, closes every live subscription so the
// write pumps send close frames, and waits for open sessions to finish or
// for the timeout to expire.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Warn("http shutdown", "err", err)
	}

	s.broadcaster.Close()

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("shutdown complete")
		return nil
	case <-ctx.Done():
		s.log.Warn("shutdown timeout reached with sessions still open")
		return ctx.Err()
	}
}
