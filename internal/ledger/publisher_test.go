package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmitFillsDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	pub := NewPublisher(store, discardLogger())

	pub.Emit(ctx, Event{Type: EventMatchCreated, MatchID: "m1", Organ: "kidney", Score: 88})

	events, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.NotEmpty(t, events[0].TxHash)
	assert.False(t, events[0].CreatedAt.IsZero())
	assert.Equal(t, EventMatchCreated, events[0].Type)
}

func TestEmitForwardsToOutbox(t *testing.T) {
	ctx := context.Background()
	outbox := make(chan Event, 1)
	pub := NewPublisher(NewInMemoryStore(), discardLogger(), WithOutbox(outbox))

	pub.Emit(ctx, Event{Type: EventMatchApproved, MatchID: "m1"})

	select {
	case event := <-outbox:
		assert.Equal(t, EventMatchApproved, event.Type)
	default:
		t.Fatal("expected event on outbox")
	}
}

func TestEmitFullOutboxDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	outbox := make(chan Event) // unbuffered, nobody reading
	pub := NewPublisher(NewInMemoryStore(), discardLogger(), WithOutbox(outbox))

	done := make(chan struct{})
	go func() {
		pub.Emit(ctx, Event{Type: EventMatchRejected, MatchID: "m1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full outbox")
	}
}

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error {
	return errors.New("disk on fire")
}

func (failingStore) ListRecent(context.Context, int) ([]Event, error) {
	return nil, nil
}

func TestEmitSwallowsStoreFailure(t *testing.T) {
	pub := NewPublisher(failingStore{}, discardLogger())
	// Best-effort: no panic, no error surfaced to the caller.
	pub.Emit(context.Background(), Event{Type: EventMatchCreated, MatchID: "m1"})
}

func TestTxHashDeterministic(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	first := NewTxHash(EventMatchCreated, "m1", at)
	assert.Equal(t, first, NewTxHash(EventMatchCreated, "m1", at))
	assert.NotEqual(t, first, NewTxHash(EventMatchApproved, "m1", at))
	assert.Len(t, first, 2+64)
}
