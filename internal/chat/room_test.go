package chat

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistryEnsureRoomIsIdempotent(t *testing.T) {
	reg := NewRegistry()

	first := reg.EnsureRoom("abc")
	second := reg.EnsureRoom("abc")

	require.Same(t, first, second)
	require.Equal(t, "abc", first.ID())
}

func TestRegistryEnsureRoomConcurrentCreatesOneInstance(t *testing.T) {
	reg := NewRegistry()

	const callers = 32
	rooms := make([]*Room, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i] = reg.EnsureRoom("contested")
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		require.Same(t, rooms[0], rooms[i])
	}
}

func TestRegistryGetRoomUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.GetRoom("nope")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryRemoveParticipantIsANoOpWhenAbsent(t *testing.T) {
	reg := NewRegistry()

	// Unknown room: nothing to do, no panic, no error.
	reg.RemoveParticipant("ghost", uuid.New())

	room := reg.EnsureRoom("r")
	handle := uuid.New()
	require.True(t, room.addMember(handle, 2))

	reg.RemoveParticipant("r", handle)
	reg.RemoveParticipant("r", handle)
	require.Zero(t, room.MemberCount())
}

func TestRegistryKeepsEmptiedRooms(t *testing.T) {
	reg := NewRegistry()
	room := reg.EnsureRoom("r")
	handle := uuid.New()
	require.True(t, room.addMember(handle, 2))

	reg.RemoveParticipant("r", handle)

	got, err := reg.GetRoom("r")
	require.NoError(t, err)
	require.Same(t, room, got)
}

func TestRegistryRoomsSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.EnsureRoom("b")
	a := reg.EnsureRoom("a")
	require.True(t, a.addMember(uuid.New(), 2))

	infos := reg.Rooms()
	require.Len(t, infos, 2)
	require.Equal(t, RoomInfo{ID: "a", Members: 1}, infos[0])
	require.Equal(t, RoomInfo{ID: "b", Members: 0}, infos[1])
}
