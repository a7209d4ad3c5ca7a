package services

import (
	"context"
	"fmt"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/search"
)

type IMessageService interface {
	SendPersisted(from, to domain.Identity, body string) (domain.Message, error)
	History(phone domain.Identity) ([]domain.Message, error)
	Conversation(phone, partner domain.Identity) ([]domain.Message, error)
	Partners(phone domain.Identity) ([]domain.Identity, error)
	Search(ctx context.Context, phone domain.Identity, terms string, limit int) ([]search.Hit, error)
}

// MessageService owns the persisted-send path: the durable,
// directory-backed write that is fully decoupled from the live relay.
// It shares the moderator with the router so both paths persist and
// deliver the same sanitized body.
type MessageService struct {
	log         *slog.Logger
	directory   contract.UserDirectory
	connections contract.IConnectionRegistry
	moderator   *moderation.Moderator
	index       *search.Index
}

func NewMessageService(log *slog.Logger, directory contract.UserDirectory,
	connections contract.IConnectionRegistry, moderator *moderation.Moderator,
	index *search.Index) *MessageService {
	return &MessageService{
		log:         log,
		directory:   directory,
		connections: connections,
		moderator:   moderator,
		index:       index,
	}
}

// SendPersisted appends the message to both parties' durable logs.
// Both users must be registered and the recipient must currently be
// connected; an offline recipient is reported as ErrRecipientOffline
// and nothing is written.
func (s *MessageService) SendPersisted(from, to domain.Identity, body string) (domain.Message, error) {
	if !from.IsValid() || !to.IsValid() {
		return domain.Message{}, fmt.Errorf("%w: %q, %q", errors.ErrInvalidIdentity, from, to)
	}

	for _, phone := range []domain.Identity{from, to} {
		exists, err := s.directory.Exists(phone)
		if err != nil {
			return domain.Message{}, err
		}
		if !exists {
			return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrUserNotFound, phone)
		}
	}

	if _, online := s.connections.Lookup(to); !online {
		return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrRecipientOffline, to)
	}

	if s.moderator != nil {
		body = s.moderator.Censor(body)
	}

	msg := domain.NewMessage(from, to, body)
	for _, owner := range []domain.Identity{from, to} {
		if err := s.directory.AppendMessage(owner, msg); err != nil {
			return domain.Message{}, err
		}
	}

	s.indexBestEffort(msg)
	return msg, nil
}

// indexBestEffort feeds the search projection. Index failures are
// logged and swallowed; the durable write already happened.
func (s *MessageService) indexBestEffort(msg domain.Message) {
	if s.index == nil {
		return
	}
	for _, owner := range []domain.Identity{msg.From, msg.To} {
		if err := s.index.IndexMessage(owner, msg); err != nil {
			s.log.Warn("Search indexing failed", "owner", owner, "message_id", msg.ID, "error", err)
		}
	}
}

func (s *MessageService) History(phone domain.Identity) ([]domain.Message, error) {
	if exists, err := s.directory.Exists(phone); err != nil {
		return nil, err
	} else if !exists {
		return nil, fmt.Errorf("%w: %s", errors.ErrUserNotFound, phone)
	}
	return s.directory.Messages(phone)
}

func (s *MessageService) Conversation(phone, partner domain.Identity) ([]domain.Message, error) {
	if exists, err := s.directory.Exists(phone); err != nil {
		return nil, err
	} else if !exists {
		return nil, fmt.Errorf("%w: %s", errors.ErrUserNotFound, phone)
	}
	return s.directory.MessagesWith(phone, partner)
}

func (s *MessageService) Partners(phone domain.Identity) ([]domain.Identity, error) {
	return s.directory.Partners(phone)
}

func (s *MessageService) Search(ctx context.Context, phone domain.Identity, terms string, limit int) ([]search.Hit, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.Search(ctx, phone, terms, limit)
}
