package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher notarizes matching events. It is append-only and best-effort:
// the matching core calls Emit after its own state is committed and never
// depends on the outcome.
type Publisher struct {
	store  Store
	logger *slog.Logger
	// outbox feeds the Kafka worker when one is wired. Nil means local
	// store only.
	outbox chan<- Event
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithOutbox attaches a channel consumed by the Kafka worker.
func WithOutbox(outbox chan<- Event) Option {
	return func(p *Publisher) {
		p.outbox = outbox
	}
}

func NewPublisher(store Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records the event in the ledger store and, when an outbox is wired,
// hands it to the Kafka worker. A full outbox drops the event rather than
// blocking the caller.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.TxHash == "" {
		event.TxHash = NewTxHash(event.Type, event.MatchID, event.CreatedAt)
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "ledger append failed",
			"event_type", string(event.Type),
			"match_id", event.MatchID,
			"error", err.Error(),
		)
		return
	}

	if p.outbox == nil {
		return
	}
	select {
	case p.outbox <- event:
	default:
		p.logger.WarnContext(ctx, "ledger outbox full, dropping event",
			"event_type", string(event.Type),
			"match_id", event.MatchID,
		)
	}
}

// Recent exposes the latest notarized events for display.
func (p *Publisher) Recent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
