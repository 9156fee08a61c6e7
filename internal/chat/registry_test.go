package chat

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryJoinAndMembers(t *testing.T) {
	r := NewRegistry()
	c1 := uuid.New()
	c2 := uuid.New()

	r.Join(c1, "travel-group")
	r.Join(c2, "travel-group")

	members := r.MembersOf("travel-group")
	assert.Len(t, members, 2)
	assert.Contains(t, members, c1)
	assert.Contains(t, members, c2)
	assert.Equal(t, 2, r.Count("travel-group"))

	room, ok := r.Room(c1)
	require.True(t, ok)
	assert.Equal(t, "travel-group", room)
}

func TestRegistryJoinIdempotent(t *testing.T) {
	r := NewRegistry()
	c1 := uuid.New()

	prev := r.Join(c1, "travel-group")
	assert.Empty(t, prev)

	prev = r.Join(c1, "travel-group")
	assert.Empty(t, prev)
	assert.Equal(t, 1, r.Count("travel-group"))
}

func TestRegistryJoinSwitchesRooms(t *testing.T) {
	r := NewRegistry()
	c1 := uuid.New()

	r.Join(c1, "room-a")
	prev := r.Join(c1, "room-b")

	assert.Equal(t, "room-a", prev)
	assert.Empty(t, r.MembersOf("room-a"), "old room must not retain the connection")
	assert.Equal(t, []uuid.UUID{c1}, r.MembersOf("room-b"))

	room, ok := r.Room(c1)
	require.True(t, ok)
	assert.Equal(t, "room-b", room)
}

func TestRegistryLeave(t *testing.T) {
	r := NewRegistry()
	c1 := uuid.New()
	c2 := uuid.New()

	r.Join(c1, "travel-group")
	r.Join(c2, "travel-group")

	left := r.Leave(c1)
	assert.Equal(t, "travel-group", left)
	assert.Equal(t, 1, r.Count("travel-group"))

	_, ok := r.Room(c1)
	assert.False(t, ok)
}

func TestRegistryLeaveLastMemberRemovesRoom(t *testing.T) {
	r := NewRegistry()
	c1 := uuid.New()

	r.Join(c1, "travel-group")
	r.Leave(c1)

	assert.Empty(t, r.MembersOf("travel-group"))
	assert.Equal(t, 0, r.Count("travel-group"))
}

func TestRegistryLeaveWithoutRoomIsNoop(t *testing.T) {
	r := NewRegistry()

	assert.Empty(t, r.Leave(uuid.New()))
}

func TestRegistryMembersOfUnknownRoom(t *testing.T) {
	r := NewRegistry()

	assert.Empty(t, r.MembersOf("nowhere"))
	assert.Equal(t, 0, r.Count("nowhere"))
}

func TestRegistryMembershipInvariant(t *testing.T) {
	// For any sequence of join/leave, the member count equals the number
	// of connections whose last action was a join without a later leave.
	r := NewRegistry()
	conns := make([]uuid.UUID, 5)
	for i := range conns {
		conns[i] = uuid.New()
	}

	for _, c := range conns {
		r.Join(c, "travel-group")
	}
	r.Leave(conns[0])
	r.Join(conns[1], "side-room")
	r.Leave(conns[2])
	r.Join(conns[2], "travel-group")

	assert.Equal(t, 3, r.Count("travel-group"))
	assert.Equal(t, 1, r.Count("side-room"))
}
