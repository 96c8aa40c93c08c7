package donor

import (
	"context"

	"lifelink/internal/domain"
)

// Store abstracts donor persistence. The matching engine only ever narrows
// by organ and activity; wider queries belong to the registration subsystem.
type Store interface {
	Insert(ctx context.Context, d Donor) error
	FindByID(ctx context.Context, id string) (Donor, error)
	// FindActiveByOrgan returns active donors offering the given organ.
	FindActiveByOrgan(ctx context.Context, organ domain.Organ) ([]Donor, error)
	FindAllActive(ctx context.Context) ([]Donor, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
