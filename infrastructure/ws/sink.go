package ws

import (
	"context"
	"log/slog"

	"chat-relay/domain/event"
)

// outbound is the minimal surface the sink needs from a connection.
// Tests substitute an in-memory recorder.
type outbound interface {
	TrySend(data []byte) error
}

// Sink adapts one connection's outbound queue to the relay's EventSink.
// A slow reader sheds events instead of stalling the broadcaster.
type Sink struct {
	log  *slog.Logger
	conn outbound
}

func NewSink(log *slog.Logger, conn outbound) *Sink {
	return &Sink{log: log, conn: conn}
}

func (s *Sink) Consume(_ context.Context, e event.DomainEvent) error {
	data, err := encodeEvent(e)
	if err != nil {
		return err
	}
	if err := s.conn.TrySend(data); err != nil {
		s.log.Warn("Dropping event under backpressure", "event", e.Name())
		return err
	}
	return nil
}
