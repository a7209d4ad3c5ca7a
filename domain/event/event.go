package event

import (
	"time"

	"github.com/google/uuid"

	"chat-relay/domain"
)

// DomainEvent is anything the relay pushes to connected sessions.
// Name doubles as the wire event type seen by clients.
type DomainEvent interface {
	Name() string
}

// UserConnected announces a fresh presence to every other session.
type UserConnected struct {
	User domain.Identity
}

func (UserConnected) Name() string { return "userConnected" }

// UserDisconnected announces a departed presence to every other session.
type UserDisconnected struct {
	User domain.Identity
}

func (UserDisconnected) Name() string { return "userDisconnected" }

// MessageReceived is a live delivery, broadcast to every member of the room.
type MessageReceived struct {
	ID   uuid.UUID
	From domain.Identity
	To   domain.Identity
	Body string
	At   time.Time
}

func (MessageReceived) Name() string { return "receiveMessage" }

// MessageNotification is the fallback nudge when the recipient is online
// but has not joined the conversation. Clients self-filter on To.
type MessageNotification struct {
	From    domain.Identity
	To      domain.Identity
	Body    string
	RoomKey domain.RoomKey
}

func (MessageNotification) Name() string { return "newMessageNotification" }
