package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/redplayer0/browser-chat/internal/chat"
)

// JoinRequest is the body of POST /join.
type JoinRequest struct {
	RoomID string `json:"room_id" validate:"required"`
}

// JoinResponse reports the admission decision for a join request.
type JoinResponse struct {
	RoomID string `json:"room_id"`
	Status string `json:"status"`
}

// RoomView is the /rooms list entry.
type RoomView struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
}

// HistoryView is one replayed message on /history.
type HistoryView struct {
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// handleJoin answers the pre-connection handshake. The decision here is
// advisory: admission is re-checked when the WebSocket actually opens,
// since slots can fill in between.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		_ = render.Render(w, r, errInvalidJoinBody)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		_ = render.Render(w, r, errInvalidJoinBody)
		return
	}

	switch decision := s.policy.TryJoin(req.RoomID); decision {
	case chat.RoomFull:
		_ = render.Render(w, r, errRoomFull)
	case chat.RoomCreated:
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, JoinResponse{RoomID: req.RoomID, Status: decision.String()})
	default:
		render.JSON(w, r, JoinResponse{RoomID: req.RoomID, Status: decision.String()})
	}
}

// handleRoom upgrades to a WebSocket and runs the connection session. The
// admission check runs again here, before the upgrade, so a room cannot be
// overfilled by stale join responses.
func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		http.Error(w, "room id required", http.StatusBadRequest)
		return
	}

	handle := uuid.New()
	if s.policy.Admit(roomID, handle) == chat.RoomFull {
		http.Error(w, "room full", http.StatusConflict)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response; give the slot back.
		s.registry.RemoveParticipant(roomID, handle)
		s.log.Warn("websocket upgrade failed", "room", roomID, "err", err)
		return
	}

	session := chat.NewSession(s.log, conn, s.registry, s.broadcaster, roomID, handle, chat.SessionConfig{
		MaxMessageSize:  s.cfg.MaxMessageSize,
		RateLimitBurst:  s.cfg.RateLimitBurst,
		RateLimitRefill: s.cfg.RateLimitRefillInterval,
	})

	s.sessions.Add(1)
	defer s.sessions.Done()
	session.Run()
}

// handleRooms lists every registered room with its occupancy.
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	views := lo.Map(s.registry.Rooms(), func(info chat.RoomInfo, _ int) RoomView {
		return RoomView{ID: info.ID, Members: info.Members}
	})
	render.JSON(w, r, views)
}

// handleHistory returns the current replay snapshot for a room.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		_ = render.Render(w, r, errRoomNotProvided)
		return
	}
	if _, err := s.registry.GetRoom(roomID); err != nil {
		_ = render.Render(w, r, errRoomNotFound)
		return
	}

	views := lo.Map(s.broadcaster.History(roomID), func(msg chat.Message, _ int) HistoryView {
		return HistoryView{Message: msg.Text, SentAt: msg.SentAt}
	})
	render.JSON(w, r, views)
}

// handleHealth is a plain liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "chat server is running")
}
