package chat

import "github.com/google/uuid"

// Decision is the outcome of an admission check.
type Decision int

const (
	// RoomCreated means the room did not exist; it was created and the
	// caller may join. Distinguished from JoinAccepted only for caller
	// messaging.
	RoomCreated Decision = iota
	// JoinAccepted means the room exists and has a free slot.
	JoinAccepted
	// RoomFull means the room is at capacity; the caller must not open a
	// connection.
	RoomFull
)

func (d Decision) String() string {
	switch d {
	case RoomCreated:
		return "created"
	case JoinAccepted:
		return "accepted"
	case RoomFull:
		return "room_full"
	default:
		return "unknown"
	}
}

// AdmissionPolicy gates room membership against a per-room capacity. The
// capacity is configuration, not a constant; the default of 2 gives the
// classic chat-pair rooms.
type AdmissionPolicy struct {
	registry *Registry
	capacity int
}

// NewAdmissionPolicy builds a policy over registry. Non-positive capacities
// fall back to 2.
func NewAdmissionPolicy(registry *Registry, capacity int) *AdmissionPolicy {
	if capacity <= 0 {
		capacity = 2
	}
	return &AdmissionPolicy{registry: registry, capacity: capacity}
}

// TryJoin answers the pre-connection join request. It creates unseen rooms
// but reserves no slot: time passes between this check and the actual
// connection, so Admit re-checks at connection-open time.
func (p *AdmissionPolicy) TryJoin(roomID string) Decision {
	room, err := p.registry.GetRoom(roomID)
	if err != nil {
		p.registry.EnsureRoom(roomID)
		return RoomCreated
	}
	if room.MemberCount() >= p.capacity {
		return RoomFull
	}
	return JoinAccepted
}

// Admit performs the connect-time admission: it creates the room if needed
// and atomically adds handle to its membership unless the room is full.
func (p *AdmissionPolicy) Admit(roomID string, handle uuid.UUID) Decision {
	_, err := p.registry.GetRoom(roomID)
	room := p.registry.EnsureRoom(roomID)
	if !room.addMember(handle, p.capacity) {
		return RoomFull
	}
	if err != nil {
		return RoomCreated
	}
	return JoinAccepted
}

// Capacity reports the configured per-room participant limit.
func (p *AdmissionPolicy) Capacity() int { return p.capacity }
