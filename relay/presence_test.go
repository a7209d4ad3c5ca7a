package relay

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/domain/event"
)

const testSinkTimeout = 50 * time.Millisecond

func TestPresenceBroadcaster_AnnounceConnected(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	alice := &recordingSink{}
	bob := &recordingSink{}
	clara := &recordingSink{}
	registry.Register("1", alice)
	registry.Register("2", bob)
	registry.Register("3", clara)

	broadcaster := NewPresenceBroadcaster(slog.Default(), registry, testSinkTimeout)

	// When Alice's presence is announced
	broadcaster.AnnounceConnected("1")

	// Then every other session hears it exactly once
	req.Equal([]event.DomainEvent{event.UserConnected{User: "1"}}, bob.Events())
	req.Equal([]event.DomainEvent{event.UserConnected{User: "1"}}, clara.Events())

	// And not Alice's own session
	req.Empty(alice.Events())
}

func TestPresenceBroadcaster_AnnounceDisconnected(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	bob := &recordingSink{}
	registry.Register("2", bob)

	broadcaster := NewPresenceBroadcaster(slog.Default(), registry, testSinkTimeout)

	// Announcing an identity that is no longer registered still reaches peers
	broadcaster.AnnounceDisconnected("1")

	req.Equal([]event.DomainEvent{event.UserDisconnected{User: "1"}}, bob.Events())
}
