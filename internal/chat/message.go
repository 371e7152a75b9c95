// Package chat implements the room-scoped broadcast core: room registry,
// admission control, per-room pub/sub fan-out with bounded history replay,
// and the per-connection session state machine.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message is an immutable chat event published to a room.
type Message struct {
	ID     uuid.UUID
	Room   string
	Text   string
	SentAt time.Time
}

// NewMessage stamps a text payload for the given room.
func NewMessage(room, text string) Message {
	return Message{
		ID:     uuid.New(),
		Room:   room,
		Text:   text,
		SentAt: time.Now(),
	}
}

// Envelope is the wire shape exchanged over a connection. The core treats
// the message field as an opaque string and broadcasts it verbatim.
type Envelope struct {
	Message string `json:"message"`
}
