package chat

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrRoomNotFound is returned by Registry.GetRoom for an unknown room id.
// Internal callers treat it as a silent no-op rather than a fault.
var ErrRoomNotFound = errors.New("room not found")

// Room tracks the active participants of one named broadcast domain.
// Membership mutation goes through the per-room mutex so capacity checks
// and adds are atomic with respect to each other.
type Room struct {
	id string

	mu      sync.Mutex
	members map[uuid.UUID]struct{}
}

func newRoom(id string) *Room {
	return &Room{id: id, members: make(map[uuid.UUID]struct{})}
}

// ID returns the room's identifier.
func (r *Room) ID() string { return r.id }

// MemberCount returns the current number of participants.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// addMember admits handle if the room holds fewer than capacity members.
// The check and the add happen under one lock acquisition, so two racing
// admissions for a single free slot admit exactly one.
func (r *Room) addMember(handle uuid.UUID, capacity int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) >= capacity {
		return false
	}
	r.members[handle] = struct{}{}
	return true
}

func (r *Room) removeMember(handle uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, handle)
}

// RoomInfo is a point-in-time view of a room for read endpoints.
type RoomInfo struct {
	ID      string
	Members int
}

// Registry owns the process's room table. It is constructed explicitly at
// startup and shared by the admission policy and the connection handlers;
// there is no package-level instance.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// EnsureRoom returns the room for id, creating it on first use. Concurrent
// callers racing on an unseen id all observe the first writer's instance.
func (reg *Registry) EnsureRoom(id string) *Room {
	reg.mu.RLock()
	room := reg.rooms[id]
	reg.mu.RUnlock()
	if room != nil {
		return room
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if room = reg.rooms[id]; room == nil {
		room = newRoom(id)
		reg.rooms[id] = room
	}
	return room
}

// GetRoom returns the room for id or ErrRoomNotFound.
func (reg *Registry) GetRoom(id string) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// RemoveParticipant drops handle from the room's membership. Unknown rooms
// and already-removed handles are no-ops; disconnect races are expected.
// Emptied rooms stay registered so their history remains replayable.
func (reg *Registry) RemoveParticipant(id string, handle uuid.UUID) {
	room, err := reg.GetRoom(id)
	if err != nil {
		return
	}
	room.removeMember(handle)
}

// Rooms returns a snapshot of every registered room with its occupancy,
// sorted by id for stable listings.
func (reg *Registry) Rooms() []RoomInfo {
	reg.mu.RLock()
	infos := make([]RoomInfo, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		infos = append(infos, RoomInfo{ID: room.id, Members: room.MemberCount()})
	}
	reg.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
