package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single outbound write.
	writeWait = 10 * time.Second
	// pongWait is how long a connection may stay silent before the read
	// side gives up on it.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = 54 * time.Second
)

// SessionConfig carries the per-connection limits a Session enforces.
type SessionConfig struct {
	MaxMessageSize  int64
	RateLimitBurst  int
	RateLimitRefill time.Duration
}

// Session binds one WebSocket connection to one room subscription. Its
// read and write pumps run independently so a slow writer never stalls the
// reader and vice versa; whichever pump detects a transport failure first
// triggers the single guarded teardown.
type Session struct {
	log         *slog.Logger
	conn        *websocket.Conn
	registry    *Registry
	broadcaster *Broadcaster

	roomID  string
	handle  uuid.UUID
	sub     *Subscription
	limiter *rateLimiter

	teardown sync.Once
	done     chan struct{}
}

// NewSession subscribes the admitted participant to its room and returns
// the session ready to run. History replay is already queued on the
// subscription when this returns.
func NewSession(log *slog.Logger, conn *websocket.Conn, registry *Registry, broadcaster *Broadcaster, roomID string, handle uuid.UUID, cfg SessionConfig) *Session {
	conn.SetReadLimit(cfg.MaxMessageSize)
	return &Session{
		log:         log.With("room", roomID, "handle", handle.String()),
		conn:        conn,
		registry:    registry,
		broadcaster: broadcaster,
		roomID:      roomID,
		handle:      handle,
		sub:         broadcaster.Subscribe(roomID),
		limiter:     newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitRefill),
		done:        make(chan struct{}),
	}
}

// Run drives the session to completion: the write pump in its own
// goroutine, the read pump on the calling goroutine. It returns after
// teardown has run.
func (s *Session) Run() {
	go s.writePump()
	s.readPump()
	<-s.done
}

// Close tears the session down from outside, e.g. on server shutdown.
func (s *Session) Close() {
	s.shutdown()
}

// shutdown releases the session's resources exactly once, no matter how
// many pumps (or callers) race into it.
func (s *Session) shutdown() {
	s.teardown.Do(func() {
		s.broadcaster.Unsubscribe(s.sub)
		s.registry.RemoveParticipant(s.roomID, s.handle)
		_ = s.conn.Close()
		close(s.done)
		s.log.Info("session closed")
	})
}

// readPump receives inbound frames, decodes the typed envelope, and
// publishes non-empty payloads to the session's room. Malformed and empty
// payloads are dropped at this boundary, never surfaced to the core.
func (s *Session) readPump() {
	defer s.shutdown()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadError(err)
			return
		}

		if !s.limiter.allow() {
			s.log.Warn("rate limit exceeded; discarding message")
			continue
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.log.Debug("dropping malformed payload", "err", err)
			continue
		}
		if env.Message == "" {
			continue
		}

		s.broadcaster.Publish(s.roomID, env.Message)
	}
}

// writePump forwards subscription deliveries to the transport as they
// arrive and keeps the connection alive with periodic pings. A closed
// subscription channel (unsubscribe or broadcaster shutdown) sends a close
// frame and ends the session.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.shutdown()
	}()

	for {
		select {
		case msg, ok := <-s.sub.C():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(Envelope{Message: msg.Text}); err != nil {
				s.log.Debug("write failed", "err", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) logReadError(err error) {
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		s.log.Info("client disconnected")
	case errors.Is(err, websocket.ErrReadLimit):
		s.log.Warn("message exceeded read limit")
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		s.log.Warn("unexpected close", "err", err)
	default:
		s.log.Debug("read ended", "err", err)
	}
}
