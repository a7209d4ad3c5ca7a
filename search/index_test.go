package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(t.TempDir(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestIndex_SearchOwnLogOnly(t *testing.T) {
	req := require.New(t)
	ix := openTestIndex(t)
	at := time.Now().UTC()

	aliceMsg := domain.NewMessage("1", "2", "the invoice is ready")
	aliceMsg.SentAt = at
	bobMsg := domain.NewMessage("2", "3", "another invoice here")
	bobMsg.SentAt = at.Add(time.Minute)

	req.NoError(ix.IndexMessage("1", aliceMsg))
	req.NoError(ix.IndexMessage("2", bobMsg))

	// Alice only sees her own log
	hits, err := ix.Search(context.Background(), "1", "invoice", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("the invoice is ready", hits[0].Body)
	req.Equal(domain.Identity("2"), hits[0].Partner)
}

func TestIndex_NewestFirst(t *testing.T) {
	req := require.New(t)
	ix := openTestIndex(t)
	at := time.Now().UTC()

	older := domain.NewMessage("1", "2", "status report monday")
	older.SentAt = at
	newer := domain.NewMessage("2", "1", "status report friday")
	newer.SentAt = at.Add(time.Hour)

	req.NoError(ix.IndexMessage("1", older))
	req.NoError(ix.IndexMessage("1", newer))

	hits, err := ix.Search(context.Background(), "1", "status", 10)
	req.NoError(err)
	req.Len(hits, 2)
	req.Equal("status report friday", hits[0].Body)
	req.Equal("status report monday", hits[1].Body)
}

func TestIndex_NoMatch(t *testing.T) {
	req := require.New(t)
	ix := openTestIndex(t)

	msg := domain.NewMessage("1", "2", "hello there")
	req.NoError(ix.IndexMessage("1", msg))

	hits, err := ix.Search(context.Background(), "1", "goodbye", 10)
	req.NoError(err)
	req.Empty(hits)
}
