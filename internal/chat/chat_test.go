package chat

import (
	"context"
	"errors"
	"sync"

	"support-chat-be/internal/entity"
	"support-chat-be/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// fakeConn records every pushed event, standing in for a live websocket client.
type fakeConn struct {
	id string

	mu        sync.Mutex
	events    []recordedEvent
	failSends bool
}

type recordedEvent struct {
	Event string
	Data  interface{}
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string {
	return c.id
}

func (c *fakeConn) SendEvent(event string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSends {
		return errors.New("connection gone")
	}
	c.events = append(c.events, recordedEvent{Event: event, Data: data})
	return nil
}

func (c *fakeConn) eventsOfType(event string) []recordedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []recordedEvent
	for _, e := range c.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// nopLogger keeps test output quiet.
type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// failingStore wraps the in-memory store to inject persistence failures.
type failingStore struct {
	MessageStore
	failAppend bool
}

func (s *failingStore) AppendMessage(ctx context.Context, roomId uuid.UUID, sender, body string) (*entity.Message, error) {
	if s.failAppend {
		return nil, errors.New("store unavailable")
	}
	return s.MessageStore.AppendMessage(ctx, roomId, sender, body)
}

// testCore wires a full chat core on the in-memory store.
type testCore struct {
	store    MessageStore
	registry *Registry
	roster   *Roster
	router   *Router
	visitors *VisitorGateway
	agents   *AgentGateway
	pubSub   *gochannel.GoChannel
}

func newTestCore() *testCore {
	return newTestCoreWithStore(memory.NewChatStore())
}

func newTestCoreWithStore(store MessageStore) *testCore {
	log := nopLogger{}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	registry := NewRegistry(store, log)
	roster := NewRoster(registry, pubSub, log)
	router := NewRouter(store, registry, pubSub, nil, log)
	return &testCore{
		store:    store,
		registry: registry,
		roster:   roster,
		router:   router,
		visitors: NewVisitorGateway(registry, router, log),
		agents:   NewAgentGateway(registry, roster, router, store, log),
		pubSub:   pubSub,
	}
}
