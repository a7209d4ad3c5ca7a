package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/relay"

	"github.com/stretchr/testify/require"
)

const testSinkTimeout = 50 * time.Millisecond

// recordingSink captures everything the relay pushes at one session.
type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (r *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) Events() []event.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.DomainEvent(nil), r.events...)
}

type harness struct {
	connections *relay.ConnectionRegistry
	rooms       *relay.RoomRegistry
	presence    contract.IPresenceBroadcaster
	router      contract.IMessageRouter
}

func newHarness() *harness {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	connections := relay.NewConnectionRegistry()
	rooms := relay.NewRoomRegistry()
	return &harness{
		connections: connections,
		rooms:       rooms,
		presence:    relay.NewPresenceBroadcaster(log, connections, testSinkTimeout),
		router:      relay.NewMessageRouter(log, connections, rooms, nil, testSinkTimeout),
	}
}

func (h *harness) newSession(sink contract.EventSink, authPhone domain.Identity) *Session {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSession(log, sink, h.connections, h.rooms, h.presence, h.router, authPhone)
}

func frame(t *testing.T, name string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	full, err := json.Marshal(map[string]json.RawMessage{
		"event": mustMarshal(t, name),
		"data":  raw,
	})
	require.NoError(t, err)
	return full
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestSession_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("should register the session and announce presence to others", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		// Given an already identified bystander
		bystander := &recordingSink{}
		h.connections.Register("2000", bystander)

		sink := &recordingSink{}
		session := h.newSession(sink, "1000")

		// When the client logs in
		session.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))

		// Then the identity resolves to this session's sink
		got, online := h.connections.Lookup("1000")
		req.True(online)
		req.Same(sink, got)

		// And only the bystander heard about it
		req.Equal([]event.DomainEvent{event.UserConnected{User: "1000"}}, bystander.Events())
		req.Empty(sink.Events())
	})

	t.Run("should drop a login claiming a phone the token does not cover", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		sink := &recordingSink{}
		session := h.newSession(sink, "1000")

		session.Handle(ctx, frame(t, "login", loginPayload{Phone: "9999"}))

		_, online := h.connections.Lookup("9999")
		req.False(online)
	})

	t.Run("should drop a second login on the same session", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		sink := &recordingSink{}
		session := h.newSession(sink, "")

		session.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))
		session.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))

		_, online := h.connections.Lookup("1000")
		req.True(online)
	})

	t.Run("should ignore malformed frames", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		sink := &recordingSink{}
		session := h.newSession(sink, "1000")

		session.Handle(ctx, []byte("{not json"))
		session.Handle(ctx, frame(t, "teleport", map[string]string{"to": "mars"}))

		_, online := h.connections.Lookup("1000")
		req.False(online)
	})
}

func TestSession_Rooms(t *testing.T) {
	ctx := context.Background()

	t.Run("should join the canonical room regardless of argument order", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		session := h.newSession(&recordingSink{}, "1000")
		session.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))
		session.Handle(ctx, frame(t, "joinChat", roomPayload{From: "1000", To: "2000"}))

		key, err := domain.NewRoomKey("2000", "1000")
		req.NoError(err)
		req.True(h.rooms.Contains(key, "1000"))
	})

	t.Run("should refuse to join on behalf of another identity", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		session := h.newSession(&recordingSink{}, "1000")
		session.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))
		session.Handle(ctx, frame(t, "joinChat", roomPayload{From: "2000", To: "3000"}))

		key, err := domain.NewRoomKey("2000", "3000")
		req.NoError(err)
		req.False(h.rooms.Exists(key))
	})

	t.Run("should leave the room on leaveChat", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		session := h.newSession(&recordingSink{}, "1000")
		session.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))
		session.Handle(ctx, frame(t, "joinChat", roomPayload{From: "1000", To: "2000"}))
		session.Handle(ctx, frame(t, "leaveChat", roomPayload{From: "1000", To: "2000"}))

		key, err := domain.NewRoomKey("1000", "2000")
		req.NoError(err)
		req.False(h.rooms.Exists(key))
	})
}

func TestSession_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("should deliver to a joined recipient", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		aliceSink, bobSink := &recordingSink{}, &recordingSink{}
		alice := h.newSession(aliceSink, "1000")
		bob := h.newSession(bobSink, "2000")

		alice.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))
		bob.Handle(ctx, frame(t, "login", loginPayload{Phone: "2000"}))
		alice.Handle(ctx, frame(t, "joinChat", roomPayload{From: "1000", To: "2000"}))
		bob.Handle(ctx, frame(t, "joinChat", roomPayload{From: "2000", To: "1000"}))

		alice.Handle(ctx, frame(t, "sendMessage", sendPayload{From: "1000", To: "2000", Message: "hey"}))

		// Bob logged in after Alice's announcement, so his only event is the delivery
		bobEvents := bobSink.Events()
		req.Len(bobEvents, 1)
		received, ok := bobEvents[0].(event.MessageReceived)
		req.True(ok)
		req.Equal(domain.Identity("1000"), received.From)
		req.Equal("hey", received.Body)
	})

	t.Run("should drop a send into a room nobody joined", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		aliceSink := &recordingSink{}
		alice := h.newSession(aliceSink, "1000")
		alice.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))

		alice.Handle(ctx, frame(t, "sendMessage", sendPayload{From: "1000", To: "2000", Message: "void"}))

		req.Empty(aliceSink.Events())
	})
}

func TestSession_Disconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("should release rooms and announce the departure once", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		bystander := &recordingSink{}
		h.connections.Register("3000", bystander)

		session := h.newSession(&recordingSink{}, "1000")
		session.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))
		session.Handle(ctx, frame(t, "joinChat", roomPayload{From: "1000", To: "2000"}))

		session.Disconnect()
		session.Disconnect()

		_, online := h.connections.Lookup("1000")
		req.False(online)

		key, err := domain.NewRoomKey("1000", "2000")
		req.NoError(err)
		req.False(h.rooms.Exists(key))

		var departures int
		for _, e := range bystander.Events() {
			if _, ok := e.(event.UserDisconnected); ok {
				departures++
			}
		}
		req.Equal(1, departures)
	})

	t.Run("should stay silent when a fresh login superseded this session", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		bystander := &recordingSink{}
		h.connections.Register("3000", bystander)

		stale := h.newSession(&recordingSink{}, "1000")
		stale.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))

		fresh := h.newSession(&recordingSink{}, "1000")
		fresh.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))

		stale.Disconnect()

		// The fresh session still owns the identity
		_, online := h.connections.Lookup("1000")
		req.True(online)

		for _, e := range bystander.Events() {
			_, gone := e.(event.UserDisconnected)
			req.False(gone, "no departure should have been announced")
		}
	})

	t.Run("should not evict rooms a fresher session re-joined", func(t *testing.T) {
		req := require.New(t)
		h := newHarness()

		stale := h.newSession(&recordingSink{}, "1000")
		stale.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))
		stale.Handle(ctx, frame(t, "joinChat", roomPayload{From: "1000", To: "2000"}))

		fresh := h.newSession(&recordingSink{}, "1000")
		fresh.Handle(ctx, frame(t, "login", loginPayload{Phone: "1000"}))
		fresh.Handle(ctx, frame(t, "joinChat", roomPayload{From: "1000", To: "2000"}))

		stale.Disconnect()

		// Membership belongs to the fresh session now and must survive
		key, err := domain.NewRoomKey("1000", "2000")
		req.NoError(err)
		req.True(h.rooms.Contains(key, "1000"))

		_, online := h.connections.Lookup("1000")
		req.True(online)
	})
}
