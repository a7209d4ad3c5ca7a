//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one session's inbox. Consume must never block the caller:
// transport sinks buffer and drop under backpressure.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IConnectionRegistry maps identities to their live sink.
// At most one sink per identity; a later Register overwrites.
type IConnectionRegistry interface {
	Register(id domain.Identity, sink EventSink)
	Unregister(id domain.Identity, sink EventSink) bool
	Lookup(id domain.Identity) (EventSink, bool)
	AllIdentities() []domain.Identity
	Snapshot() map[domain.Identity]EventSink
}

// IRoomRegistry tracks ephemeral conversation membership.
// A room with no members does not exist.
type IRoomRegistry interface {
	Join(key domain.RoomKey, member domain.Identity)
	Leave(key domain.RoomKey, member domain.Identity)
	MembersOf(key domain.RoomKey) []domain.Identity
	Contains(key domain.RoomKey, member domain.Identity) bool
	Exists(key domain.RoomKey) bool
}

type IPresenceBroadcaster interface {
	AnnounceConnected(id domain.Identity)
	AnnounceDisconnected(id domain.Identity)
}

// Outcome is the routing decision taken for one send.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeNotified
	OutcomeUnreachable
)

type IMessageRouter interface {
	Send(ctx context.Context, from, to domain.Identity, body string) (Outcome, error)
}

// UserRecord is the directory's view of a registered user.
type UserRecord struct {
	Phone        domain.Identity
	PasswordHash string
	CreatedAt    int64
}

// UserDirectory is the external CRUD collaborator holding registered
// users and their durable message logs. The relay core never blocks
// on it; only the HTTP surface and services call in.
type UserDirectory interface {
	Find(phone domain.Identity) (UserRecord, error)
	Exists(phone domain.Identity) (bool, error)
	Create(phone domain.Identity, passwordHash string) error
	AppendMessage(phone domain.Identity, msg domain.Message) error
	Messages(phone domain.Identity) ([]domain.Message, error)
	MessagesWith(phone, partner domain.Identity) ([]domain.Message, error)
	Partners(phone domain.Identity) ([]domain.Identity, error)
}
