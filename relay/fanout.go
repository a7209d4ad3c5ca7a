package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/contract"
	"chat-relay/domain/event"
)

// dispatch pushes one event to a set of sinks, best effort.
// Every sink is tried; a failing or saturated sink is logged and skipped
// so one dead peer never costs the others their delivery. There is no
// retry and no acknowledgment.
func dispatch(ctx context.Context, log *slog.Logger, timeout time.Duration,
	sinks []contract.EventSink, evt event.DomainEvent) {
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, timeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			log.Debug(fmt.Sprintf("Sink dropped %s event", evt.Name()), "error", err)
		}
		cancel()
	}
}
