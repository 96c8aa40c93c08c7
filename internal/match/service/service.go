// Package service implements the matching core: the per-registration
// orchestrator, the batch matching engine, and the match lifecycle manager.
// Scoring itself lives in the match package and stays pure; this package owns
// all orchestration and persistence.
package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"lifelink/internal/donor"
	"lifelink/internal/ledger"
	"lifelink/internal/match"
	"lifelink/internal/match/metrics"
	"lifelink/internal/recipient"
)

// LedgerSink notarizes matching events, best-effort.
type LedgerSink interface {
	Emit(ctx context.Context, event ledger.Event)
}

// RatePublisher receives the AI match rate computed by each batch pass.
type RatePublisher interface {
	PublishMatchRate(ctx context.Context, rate float64) error
}

// Service wires the matching core to its collaborators.
type Service struct {
	donors     donor.Store
	recipients recipient.Store
	matches    match.Store
	txRunner   TxRunner
	ledger     LedgerSink
	rates      RatePublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time

	// batchRunning serializes RunBatch; overlapping passes would race the
	// de-duplication check against themselves.
	batchRunning atomic.Bool
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source. Tests pin scoring and approval times
// with it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	donors donor.Store,
	recipients recipient.Store,
	matches match.Store,
	txRunner TxRunner,
	ledgerSink LedgerSink,
	rates RatePublisher,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		donors:     donors,
		recipients: recipients,
		matches:    matches,
		txRunner:   txRunner,
		ledger:     ledgerSink,
		rates:      rates,
		logger:     logger,
		tracer:     otel.Tracer("lifelink/match"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListMatches returns all matches, newest first.
func (s *Service) ListMatches(ctx context.Context) ([]match.Match, error) {
	return s.matches.ListAll(ctx)
}

// ListSuggested returns pending matches ordered by score descending, the
// queue an operator works through.
func (s *Service) ListSuggested(ctx context.Context) ([]match.Match, error) {
	return s.matches.ListPendingByScore(ctx)
}
