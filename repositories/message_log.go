package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/domain"
)

type storedMessage struct {
	ID     string `json:"id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Body   string `json:"body"`
	SentAt int64  `json:"sent_at"`
}

// messageKey formats "msg:{phone}:{timestamp_padded}:{uuid}" so that:
//  1. a prefix scan per user returns messages in chronological order
//     (19-digit zero padding keeps lexicographic order numeric);
//  2. the UUID disambiguates two messages landing on the same nanosecond.
func messageKey(phone domain.Identity, msg domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", phone, msg.SentAt.UnixNano(), msg.ID))
}

func messagePrefix(phone domain.Identity) []byte {
	return []byte(fmt.Sprintf("msg:%s:", phone))
}

// AppendMessage writes one record into the owner's durable log.
// Both parties of a persisted send get their own copy, so each user's
// history is a single prefix scan.
func (d *Directory) AppendMessage(phone domain.Identity, msg domain.Message) error {
	record := storedMessage{
		ID:     msg.ID.String(),
		From:   string(msg.From),
		To:     string(msg.To),
		Body:   msg.Body,
		SentAt: msg.SentAt.UnixNano(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(phone, msg), data)
	})
}

// Messages returns the owner's full log, oldest first.
func (d *Directory) Messages(phone domain.Identity) ([]domain.Message, error) {
	var records []storedMessage
	err := d.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(phone)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record storedMessage
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r storedMessage, _ int) domain.Message {
		return toMessage(r)
	}), nil
}

// MessagesWith filters the owner's log down to one conversation.
func (d *Directory) MessagesWith(phone, partner domain.Identity) ([]domain.Message, error) {
	all, err := d.Messages(phone)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(m domain.Message, _ int) bool {
		return m.From == partner || m.To == partner
	}), nil
}

// Partners lists the distinct identities the owner has exchanged
// persisted messages with, in first-seen order.
func (d *Directory) Partners(phone domain.Identity) ([]domain.Identity, error) {
	all, err := d.Messages(phone)
	if err != nil {
		return nil, err
	}
	partners := lo.Map(all, func(m domain.Message, _ int) domain.Identity {
		if m.From == phone {
			return m.To
		}
		return m.From
	})
	return lo.Uniq(partners), nil
}

func toMessage(r storedMessage) domain.Message {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		id = uuid.Nil
	}
	return domain.Message{
		ID:     id,
		From:   domain.Identity(r.From),
		To:     domain.Identity(r.To),
		Body:   r.Body,
		SentAt: time.Unix(0, r.SentAt).UTC(),
	}
}
