// Package search maintains a full-text index over persisted messages.
// The index is a convenience projection: it is rebuilt from nothing by
// re-sending history and is never the record of truth.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"

	"chat-relay/domain"
)

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// Hit is one search result from an owner's message log.
type Hit struct {
	ID      string
	Partner domain.Identity
	Body    string
	SentAt  time.Time
}

func NewIndex(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	return &Index{writer: writer, log: log}, nil
}

func (ix *Index) Close() error {
	return ix.writer.Close()
}

// IndexMessage upserts one persisted message under the owner's log.
// Each party of a conversation indexes its own copy, mirroring the
// per-user layout of the directory's message log.
func (ix *Index) IndexMessage(owner domain.Identity, msg domain.Message) error {
	partner := msg.To
	if partner == owner {
		partner = msg.From
	}

	doc := bluge.NewDocument(string(owner) + ":" + msg.ID.String()).
		AddField(bluge.NewKeywordField("owner", string(owner))).
		AddField(bluge.NewKeywordField("partner", string(partner)).StoreValue()).
		AddField(bluge.NewTextField("body", msg.Body).StoreValue()).
		AddField(bluge.NewNumericField("sent_at", float64(msg.SentAt.UnixNano())).StoreValue())

	return ix.writer.Update(doc.ID(), doc)
}

// Search returns the owner's messages matching the terms, newest first.
func (ix *Index) Search(ctx context.Context, owner domain.Identity, terms string, limit int) ([]Hit, error) {
	reader, err := ix.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			ix.log.Warn("Closing index reader failed", "error", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(string(owner)).SetField("owner")).
		AddMust(bluge.NewMatchQuery(terms).SetField("body"))

	request := bluge.NewTopNSearch(limit, query).SortBy([]string{"-sent_at"})

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID = string(value)
			case "partner":
				hit.Partner = domain.Identity(value)
			case "body":
				hit.Body = string(value)
			case "sent_at":
				if ts, err := bluge.DecodeNumericFloat64(value); err == nil {
					hit.SentAt = time.Unix(0, int64(ts)).UTC()
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
