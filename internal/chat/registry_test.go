package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoomRegistersVisitorAsSoleMember(t *testing.T) {
	core := newTestCore()
	conn := newFakeConn("visitor-1")

	room, err := core.registry.CreateRoom(context.Background(), conn, "Ada")
	require.NoError(t, err)

	assert.Equal(t, "visitor-1", room.ConnectionId)
	assert.Equal(t, "Ada", room.VisitorLabel)
	assert.True(t, room.Active)

	members := core.registry.Members(room.Id)
	require.Len(t, members, 1)
	assert.Equal(t, "visitor-1", members[0].ID())

	stored, err := core.store.GetRoom(context.Background(), room.Id)
	require.NoError(t, err)
	require.NotNil(t, stored, "room must be persisted at creation")
}

func TestConcurrentVisitorsGetDisjointRooms(t *testing.T) {
	core := newTestCore()
	const visitors = 20

	rooms := make([]uuid.UUID, visitors)
	errs := make([]error, visitors)
	var wg sync.WaitGroup
	for i := 0; i < visitors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := newFakeConn(fmt.Sprintf("visitor-%d", i))
			room, err := core.registry.CreateRoom(context.Background(), conn, conn.ID())
			if err != nil {
				errs[i] = err
				return
			}
			rooms[i] = room.Id
		}(i)
	}
	wg.Wait()
	for i := 0; i < visitors; i++ {
		require.NoError(t, errs[i])
	}

	seen := make(map[uuid.UUID]bool)
	for i, id := range rooms {
		assert.False(t, seen[id], "room id reused")
		seen[id] = true
		members := core.registry.Members(id)
		require.Len(t, members, 1)
		assert.Equal(t, fmt.Sprintf("visitor-%d", i), members[0].ID())
	}
}

func TestLookupsReturnNotFound(t *testing.T) {
	core := newTestCore()

	_, err := core.registry.RoomForConnection("nobody")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = core.registry.RoomById(uuid.New())
	assert.ErrorIs(t, err, ErrRoomNotFound)

	err = core.registry.AddMember(uuid.New(), newFakeConn("agent-1"))
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomForConnectionResolvesVisitorRoom(t *testing.T) {
	core := newTestCore()
	conn := newFakeConn("visitor-1")
	created, err := core.registry.CreateRoom(context.Background(), conn, "Ada")
	require.NoError(t, err)

	room, err := core.registry.RoomForConnection("visitor-1")
	require.NoError(t, err)
	assert.Equal(t, created.Id, room.Id)
}

func TestActiveRoomsExcludesEmptyAndInactiveRooms(t *testing.T) {
	core := newTestCore()
	ctx := context.Background()

	quiet := newFakeConn("visitor-quiet")
	_, err := core.registry.CreateRoom(ctx, quiet, "quiet")
	require.NoError(t, err)

	talker := newFakeConn("visitor-talker")
	talking, err := core.registry.CreateRoom(ctx, talker, "talker")
	require.NoError(t, err)
	_, err = core.router.RouteMessage(ctx, talking.Id, "User", "hello")
	require.NoError(t, err)

	gone := newFakeConn("visitor-gone")
	closed, err := core.registry.CreateRoom(ctx, gone, "gone")
	require.NoError(t, err)
	_, err = core.router.RouteMessage(ctx, closed.Id, "User", "bye")
	require.NoError(t, err)
	_, deactivated := core.registry.DeactivateByConnection(ctx, "visitor-gone")
	require.True(t, deactivated)

	active := core.registry.ActiveRooms()
	require.Len(t, active, 1)
	assert.Equal(t, talking.Id, active[0].Id)
}

func TestDeactivateByConnectionIsIdempotentAndTerminal(t *testing.T) {
	core := newTestCore()
	ctx := context.Background()
	conn := newFakeConn("visitor-1")
	room, err := core.registry.CreateRoom(ctx, conn, "Ada")
	require.NoError(t, err)

	agent := newFakeConn("agent-1")
	require.NoError(t, core.registry.AddMember(room.Id, agent))

	_, first := core.registry.DeactivateByConnection(ctx, "visitor-1")
	assert.True(t, first)
	_, second := core.registry.DeactivateByConnection(ctx, "visitor-1")
	assert.False(t, second, "second deactivation must be a no-op")

	got, err := core.registry.RoomById(room.Id)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Empty(t, core.registry.Members(room.Id), "group is cleared even with agents joined")
}

func TestRemoveMemberLeavesOthersIntact(t *testing.T) {
	core := newTestCore()
	ctx := context.Background()
	conn := newFakeConn("visitor-1")
	room, err := core.registry.CreateRoom(ctx, conn, "Ada")
	require.NoError(t, err)

	a1 := newFakeConn("agent-1")
	a2 := newFakeConn("agent-2")
	require.NoError(t, core.registry.AddMember(room.Id, a1))
	require.NoError(t, core.registry.AddMember(room.Id, a2))

	core.registry.RemoveMember(room.Id, "agent-1")

	ids := map[string]bool{}
	for _, m := range core.registry.Members(room.Id) {
		ids[m.ID()] = true
	}
	assert.Equal(t, map[string]bool{"visitor-1": true, "agent-2": true}, ids)
}
