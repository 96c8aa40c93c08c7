package recipient

import (
	"context"

	"lifelink/internal/domain"
)

// Store abstracts recipient persistence.
type Store interface {
	Insert(ctx context.Context, r Recipient) error
	FindByID(ctx context.Context, id string) (Recipient, error)
	// FindWaitingByOrgan returns waiting recipients needing the given organ.
	FindWaitingByOrgan(ctx context.Context, organ domain.Organ) ([]Recipient, error)
	FindAllWaiting(ctx context.Context) ([]Recipient, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
