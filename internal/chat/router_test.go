package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"support-chat-be/internal/constant"
	"support-chat-be/internal/dto"
	"support-chat-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRouteMessageBroadcastsToWholeGroup(t *testing.T) {
	core := newTestCore()
	visitor := newFakeConn("visitor-1")
	room, err := core.registry.CreateRoom(context.Background(), visitor, "Alice")
	require.NoError(t, err)

	agent := newFakeConn("agent-1")
	require.NoError(t, core.registry.AddMember(room.Id, agent))

	msg, err := core.router.RouteMessage(context.Background(), room.Id, constant.SenderVisitor, "hello there")
	require.NoError(t, err)
	require.Equal(t, "hello there", msg.Body)

	for _, conn := range []*fakeConn{visitor, agent} {
		received := conn.eventsOfType(constant.EventReceiveMessage)
		require.Len(t, received, 1, "connection %s", conn.ID())
		view, ok := received[0].Data.(dto.MessageView)
		require.True(t, ok)
		require.Equal(t, msg.Id, view.Id)
		require.Equal(t, room.Id, view.RoomId)
		require.Equal(t, constant.SenderVisitor, view.Sender)
	}
}

func TestRouteMessageDeliveryMatchesStoreOrder(t *testing.T) {
	core := newTestCore()
	visitor := newFakeConn("visitor-1")
	room, err := core.registry.CreateRoom(context.Background(), visitor, "Alice")
	require.NoError(t, err)

	const count = 10
	for i := 0; i < count; i++ {
		_, err := core.router.RouteMessage(context.Background(), room.Id, constant.SenderVisitor, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	stored, err := core.store.GetMessages(context.Background(), room.Id)
	require.NoError(t, err)
	require.Len(t, stored, count)

	received := visitor.eventsOfType(constant.EventReceiveMessage)
	require.Len(t, received, count)
	for i, e := range received {
		view := e.Data.(dto.MessageView)
		require.Equal(t, stored[i].Id, view.Id)
		require.Equal(t, stored[i].Body, view.Body)
	}
}

func TestRouteMessageAccumulatesUnread(t *testing.T) {
	core := newTestCore()
	visitor := newFakeConn("visitor-1")
	room, err := core.registry.CreateRoom(context.Background(), visitor, "Alice")
	require.NoError(t, err)

	const count = 3
	for i := 0; i < count; i++ {
		_, err := core.router.RouteMessage(context.Background(), room.Id, constant.SenderVisitor, "ping")
		require.NoError(t, err)
	}

	unread, err := core.store.CountUnread(context.Background(), room.Id)
	require.NoError(t, err)
	require.EqualValues(t, count, unread)

	current, err := core.registry.RoomById(room.Id)
	require.NoError(t, err)
	require.Equal(t, count, current.UnreadCount)
	require.Equal(t, count, current.MessageCount)
}

func TestRouteMessagePersistenceFailureAbortsBroadcast(t *testing.T) {
	store := &failingStore{MessageStore: memory.NewChatStore()}
	core := newTestCoreWithStore(store)
	visitor := newFakeConn("visitor-1")
	room, err := core.registry.CreateRoom(context.Background(), visitor, "Alice")
	require.NoError(t, err)

	store.failAppend = true
	_, err = core.router.RouteMessage(context.Background(), room.Id, constant.SenderVisitor, "doomed")
	require.Error(t, err)

	require.Empty(t, visitor.eventsOfType(constant.EventReceiveMessage))

	store.failAppend = false
	stored, err := core.store.GetMessages(context.Background(), room.Id)
	require.NoError(t, err)
	require.Empty(t, stored)

	current, err := core.registry.RoomById(room.Id)
	require.NoError(t, err)
	require.Zero(t, current.MessageCount)
	require.Zero(t, current.UnreadCount)
}

func TestRouteMessageSkipsUnreachableMember(t *testing.T) {
	core := newTestCore()
	visitor := newFakeConn("visitor-1")
	room, err := core.registry.CreateRoom(context.Background(), visitor, "Alice")
	require.NoError(t, err)

	broken := newFakeConn("agent-broken")
	broken.failSends = true
	require.NoError(t, core.registry.AddMember(room.Id, broken))

	healthy := newFakeConn("agent-healthy")
	require.NoError(t, core.registry.AddMember(room.Id, healthy))

	_, err = core.router.RouteMessage(context.Background(), room.Id, constant.SenderVisitor, "still delivered")
	require.NoError(t, err)

	require.Len(t, visitor.eventsOfType(constant.EventReceiveMessage), 1)
	require.Len(t, healthy.eventsOfType(constant.EventReceiveMessage), 1)

	stored, err := core.store.GetMessages(context.Background(), room.Id)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestConcurrentRoutesToOneRoomStayOrdered(t *testing.T) {
	core := newTestCore()
	visitor := newFakeConn("visitor-1")
	room, err := core.registry.CreateRoom(context.Background(), visitor, "Alice")
	require.NoError(t, err)

	agent := newFakeConn("agent-1")
	require.NoError(t, core.registry.AddMember(room.Id, agent))

	const count = 50
	var wg sync.WaitGroup
	errs := make([]error, count)
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = core.router.RouteMessage(context.Background(), room.Id, constant.SenderVisitor, fmt.Sprintf("msg-%d", i))
		}(i)
	}
	wg.Wait()
	for i := 0; i < count; i++ {
		require.NoError(t, errs[i])
	}

	stored, err := core.store.GetMessages(context.Background(), room.Id)
	require.NoError(t, err)
	require.Len(t, stored, count)

	// Every member saw the messages in exactly the order they were persisted.
	for _, conn := range []*fakeConn{visitor, agent} {
		received := conn.eventsOfType(constant.EventReceiveMessage)
		require.Len(t, received, count, "connection %s", conn.ID())
		for i, e := range received {
			view := e.Data.(dto.MessageView)
			require.Equal(t, stored[i].Id, view.Id, "connection %s position %d", conn.ID(), i)
		}
	}

	unread, err := core.store.CountUnread(context.Background(), room.Id)
	require.NoError(t, err)
	require.EqualValues(t, count, unread)
}

func TestDeactivationWaitsForInFlightRouting(t *testing.T) {
	core := newTestCore()
	visitor := newFakeConn("visitor-1")
	room, err := core.visitors.HandleConnect(context.Background(), visitor, "Alice")
	require.NoError(t, err)

	lock := core.router.roomLock(room.Id)
	lock.Lock()

	done := make(chan struct{})
	go func() {
		core.visitors.HandleDisconnect(context.Background(), visitor.ID())
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("deactivation did not wait for the room lock")
	case <-time.After(50 * time.Millisecond):
	}

	lock.Unlock()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deactivation never finished")
	}

	_, err = core.router.RouteMessage(context.Background(), room.Id, constant.SenderVisitor, "too late")
	require.ErrorIs(t, err, ErrRoomInactive)
}

func TestDeactivationDropsRoomLockEntry(t *testing.T) {
	core := newTestCore()
	visitor := newFakeConn("visitor-1")
	room, err := core.visitors.HandleConnect(context.Background(), visitor, "Alice")
	require.NoError(t, err)
	require.NoError(t, core.visitors.HandleMessage(context.Background(), visitor, "hello"))

	core.router.mu.Lock()
	_, held := core.router.roomLocks[room.Id]
	core.router.mu.Unlock()
	require.True(t, held)

	core.visitors.HandleDisconnect(context.Background(), visitor.ID())

	core.router.mu.Lock()
	_, held = core.router.roomLocks[room.Id]
	core.router.mu.Unlock()
	require.False(t, held)

	// A late send fails fast and does not resurrect the entry.
	_, err = core.router.RouteMessage(context.Background(), room.Id, constant.SenderVisitor, "late")
	require.ErrorIs(t, err, ErrRoomInactive)

	core.router.mu.Lock()
	_, held = core.router.roomLocks[room.Id]
	core.router.mu.Unlock()
	require.False(t, held)
}

func TestRouteMessageToUnknownRoom(t *testing.T) {
	core := newTestCore()
	_, err := core.router.RouteMessage(context.Background(), uuid.New(), constant.SenderVisitor, "nobody home")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRouteMessageToInactiveRoom(t *testing.T) {
	core := newTestCore()
	visitor := newFakeConn("visitor-1")
	room, err := core.registry.CreateRoom(context.Background(), visitor, "Alice")
	require.NoError(t, err)

	_, deactivated := core.registry.DeactivateByConnection(context.Background(), visitor.ID())
	require.True(t, deactivated)

	_, err = core.router.RouteMessage(context.Background(), room.Id, constant.SenderVisitor, "too late")
	require.ErrorIs(t, err, ErrRoomInactive)
}
