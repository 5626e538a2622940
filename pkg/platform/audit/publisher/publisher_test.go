package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "docverify/pkg/domain"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/publishers/buffered"
	"docverify/pkg/platform/audit/store/memory"
	"docverify/pkg/requestcontext"
)

type recordingSink struct {
	entries []audit.Entry
	err     error
}

func (s *recordingSink) Publish(_ context.Context, e audit.Entry) error {
	s.entries = append(s.entries, e)
	return s.err
}

func TestPublisher_SyncModeEnrichesFromContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	adminID := id.NewAdminID()
	err := pub.Emit(ctx, audit.Entry{
		AdminID:    adminID,
		Action:     audit.ActionUpload,
		TargetType: audit.TargetUser,
		TargetID:   "rec-1",
	})
	require.NoError(t, err)

	entries := store.All()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, now, e.Timestamp)
	assert.Equal(t, "req-42", e.RequestID)
	assert.Equal(t, "203.0.113.7", e.IPAddress)
	assert.Contains(t, e.Client, "Chrome")
	assert.Contains(t, e.Client, "Linux")
}

func TestPublisher_RejectsUnknownAction(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	err := pub.Emit(context.Background(), audit.Entry{Action: "teleport"})
	require.Error(t, err)
	assert.Empty(t, store.All())
}

func TestPublisher_SinkFailureDoesNotFailEmit(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{err: errors.New("broker down")}
	pub := NewPublisher(store, WithSink(sink))

	require.NoError(t, pub.Emit(context.Background(), audit.Entry{Action: audit.ActionLogin, TargetType: audit.TargetAdmin}))
	assert.Len(t, store.All(), 1)
	assert.Len(t, sink.entries, 1)
}

func TestPublisher_BufferedModeDefersWrite(t *testing.T) {
	store := memory.NewInMemoryStore()
	buf := buffered.NewRingBuffer(4)
	pub := NewPublisher(store, WithBuffer(buf))

	require.NoError(t, pub.Emit(context.Background(), audit.Entry{Action: audit.ActionLogout, TargetType: audit.TargetAdmin}))
	assert.Empty(t, store.All())
	assert.Equal(t, 1, buf.Len())

	for _, e := range buf.DequeueBatch(4) {
		require.NoError(t, pub.Fanout().Write(context.Background(), e))
	}
	got, err := pub.List(context.Background(), audit.Query{TargetType: audit.TargetAdmin})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestClientSummary(t *testing.T) {
	assert.Contains(t, ClientSummary("Googlebot/2.1 (+http://www.google.com/bot.html)"), "bot")
}
