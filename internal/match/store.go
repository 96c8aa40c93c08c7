package match

import "context"

// Store abstracts match persistence.
//
// Insert must enforce the one-match-per-pair invariant itself (unique
// constraint or serialized access) and report violations as DuplicateMatch;
// the orchestrator's check-then-insert alone is not safe under concurrency.
// UpdateStatus applies only the match-row part of a transition; the lifecycle
// manager runs it together with the donor/recipient updates inside one
// transaction.
type Store interface {
	Insert(ctx context.Context, m Match) error
	FindByID(ctx context.Context, id string) (Match, error)
	FindByPair(ctx context.Context, donorID, recipientID string) (Match, error)
	ListAll(ctx context.Context) ([]Match, error)
	// ListPendingByScore returns pending matches ordered by score descending.
	ListPendingByScore(ctx context.Context) ([]Match, error)
	UpdateStatus(ctx context.Context, cmd TransitionCommand) (Match, error)
}
