// Package domain contains core concepts of the relay.
// This file defines Message records.
// Messages are immutable once created.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one chat line between two identities.
// The relay never stores these; durable history belongs to the
// user directory.
type Message struct {
	ID     uuid.UUID
	From   Identity
	To     Identity
	Body   string
	SentAt time.Time
}

func NewMessage(from, to Identity, body string) Message {
	return Message{
		ID:     uuid.New(),
		From:   from,
		To:     to,
		Body:   body,
		SentAt: time.Now().UTC(),
	}
}
