package relay

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// recordingSink captures consumed events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Events() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.DomainEvent, len(s.events))
	copy(out, s.events)
	return out
}

func TestConnectionRegistry_RegisterAndLookup(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	sink := &recordingSink{}

	// Given no connection
	_, ok := registry.Lookup("0601020304")
	req.False(ok)

	// When an identity registers
	registry.Register("0601020304", sink)

	// Then it is resolvable and listed
	got, ok := registry.Lookup("0601020304")
	req.True(ok)
	req.Same(sink, got.(*recordingSink))
	req.Equal([]domain.Identity{"0601020304"}, registry.AllIdentities())
}

func TestConnectionRegistry_LaterLoginOverwrites(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	first := &recordingSink{}
	second := &recordingSink{}

	registry.Register("0601020304", first)
	registry.Register("0601020304", second)

	got, ok := registry.Lookup("0601020304")
	req.True(ok)
	req.Same(second, got.(*recordingSink))
	req.Len(registry.AllIdentities(), 1)
}

func TestConnectionRegistry_StaleDisconnectDoesNotEvict(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	h1 := &recordingSink{}
	h2 := &recordingSink{}

	// Given X logged in on H1, then re-logged-in on H2
	registry.Register("0601020304", h1)
	registry.Register("0601020304", h2)

	// When the stale H1 disconnect arrives late
	removed := registry.Unregister("0601020304", h1)

	// Then X stays registered with H2
	req.False(removed)
	got, ok := registry.Lookup("0601020304")
	req.True(ok)
	req.Same(h2, got.(*recordingSink))
}

func TestConnectionRegistry_UnregisterMatchingHandle(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	sink := &recordingSink{}

	registry.Register("0601020304", sink)

	req.True(registry.Unregister("0601020304", sink))
	_, ok := registry.Lookup("0601020304")
	req.False(ok)

	// Double disconnect is a no-op
	req.False(registry.Unregister("0601020304", sink))
}
