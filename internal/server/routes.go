package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routes builds the HTTP router: page and health endpoints, the join
// handshake, the WebSocket room endpoint, and the read-only room/history
// views.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Post("/join", s.handleJoin)
	r.Get("/room/{roomID}", s.handleRoom)

	r.Get("/rooms", s.handleRooms)
	r.Get("/history", s.handleHistory)

	return r
}
