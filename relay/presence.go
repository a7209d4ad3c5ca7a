package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
)

// PresenceBroadcaster announces connect and disconnect events to every
// other connected session. Delivery is fire-and-forget, at most once,
// with no ordering guarantee between announcements of different
// identities.
type PresenceBroadcaster struct {
	log         *slog.Logger
	connections contract.IConnectionRegistry
	sinkTimeout time.Duration
}

func NewPresenceBroadcaster(log *slog.Logger, connections contract.IConnectionRegistry,
	sinkTimeout time.Duration) *PresenceBroadcaster {
	return &PresenceBroadcaster{log: log, connections: connections, sinkTimeout: sinkTimeout}
}

func (b *PresenceBroadcaster) AnnounceConnected(id domain.Identity) {
	b.announce(id, event.UserConnected{User: id})
}

func (b *PresenceBroadcaster) AnnounceDisconnected(id domain.Identity) {
	b.announce(id, event.UserDisconnected{User: id})
}

// announce fans the event out to a snapshot of every sink except the
// origin's own. The snapshot is taken before any dispatch so no lock
// is held while sinks consume.
func (b *PresenceBroadcaster) announce(origin domain.Identity, evt event.DomainEvent) {
	snapshot := b.connections.Snapshot()
	sinks := make([]contract.EventSink, 0, len(snapshot))
	for id, sink := range snapshot {
		if id == origin {
			continue
		}
		sinks = append(sinks, sink)
	}
	b.log.Debug(fmt.Sprintf("Broadcasting %s", evt.Name()), "user", origin, "peers", len(sinks))
	dispatch(context.Background(), b.log, b.sinkTimeout, sinks, evt)
}
