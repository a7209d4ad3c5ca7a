package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
)

// MessageRouter decides, per outgoing message, between three paths:
//
//  1. recipient joined the room -> live broadcast to every room member;
//  2. recipient connected but not in the room -> notification nudge,
//     broadcast to all other sessions (clients self-filter on To);
//  3. recipient offline -> nothing at all. Durability for that case is
//     the persisted-send HTTP operation, never this router.
//
// The router keeps no message history of record.
type MessageRouter struct {
	log         *slog.Logger
	connections contract.IConnectionRegistry
	rooms       contract.IRoomRegistry
	moderator   *moderation.Moderator
	sinkTimeout time.Duration
}

func NewMessageRouter(log *slog.Logger, connections contract.IConnectionRegistry,
	rooms contract.IRoomRegistry, moderator *moderation.Moderator,
	sinkTimeout time.Duration) *MessageRouter {
	return &MessageRouter{
		log:         log,
		connections: connections,
		rooms:       rooms,
		moderator:   moderator,
		sinkTimeout: sinkTimeout,
	}
}

// Send routes one message. Identity validation failures and sends into a
// room nobody joined are returned as errors and take no action; the
// session layer decides whether to surface or drop them.
func (r *MessageRouter) Send(ctx context.Context, from, to domain.Identity, body string) (contract.Outcome, error) {
	key, err := domain.NewRoomKey(from, to)
	if err != nil {
		return 0, err
	}

	// A sender must have joined the conversation before sending into it.
	if !r.rooms.Exists(key) {
		return 0, fmt.Errorf("%w: %s", errors.ErrRoomNotJoined, key)
	}

	if r.moderator != nil {
		body = r.moderator.Censor(body)
	}

	if r.rooms.Contains(key, to) {
		r.deliverToRoom(ctx, key, from, to, body)
		return contract.OutcomeDelivered, nil
	}

	if _, online := r.connections.Lookup(to); online {
		r.notify(ctx, key, from, to, body)
		return contract.OutcomeNotified, nil
	}

	r.log.Debug("Recipient unreachable, nothing emitted", "from", from, "to", to)
	return contract.OutcomeUnreachable, nil
}

// deliverToRoom broadcasts the message to every session joined to the
// room, sender included. Normal usage is exactly two members but the
// membership set is not capped at two.
func (r *MessageRouter) deliverToRoom(ctx context.Context, key domain.RoomKey, from, to domain.Identity, body string) {
	msg := domain.NewMessage(from, to, body)
	evt := event.MessageReceived{ID: msg.ID, From: from, To: to, Body: body, At: msg.SentAt}

	var sinks []contract.EventSink
	for _, member := range r.rooms.MembersOf(key) {
		if sink, ok := r.connections.Lookup(member); ok {
			sinks = append(sinks, sink)
		}
	}
	r.log.Debug("Delivering message to room", "room", key, "targets", len(sinks))
	dispatch(ctx, r.log, r.sinkTimeout, sinks, evt)
}

// notify broadcasts the nudge to every connected session except the
// sender's; clients filter on To themselves.
func (r *MessageRouter) notify(ctx context.Context, key domain.RoomKey, from, to domain.Identity, body string) {
	evt := event.MessageNotification{From: from, To: to, Body: body, RoomKey: key}

	snapshot := r.connections.Snapshot()
	sinks := make([]contract.EventSink, 0, len(snapshot))
	for id, sink := range snapshot {
		if id == from {
			continue
		}
		sinks = append(sinks, sink)
	}
	r.log.Debug("Recipient not in room, notifying", "room", key, "to", to, "targets", len(sinks))
	dispatch(ctx, r.log, r.sinkTimeout, sinks, evt)
}
