package donor

import (
	"context"
	"sort"
	"sync"

	"lifelink/internal/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// InMemoryStore keeps donors in a map for tests and single-node deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	donors map[string]Donor
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{donors: make(map[string]Donor)}
}

func (s *InMemoryStore) Insert(_ context.Context, d Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.donors[d.ID]; ok {
		return dErrors.New(dErrors.CodeConflict, "donor already exists")
	}
	s.donors[d.ID] = d
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.donors[id]; ok {
		return d, nil
	}
	return Donor{}, dErrors.New(dErrors.CodeNotFound, "donor not found")
}

func (s *InMemoryStore) FindActiveByOrgan(_ context.Context, organ domain.Organ) ([]Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Donor
	for _, d := range s.donors {
		if d.Active && d.Status == StatusActive && d.Organ == organ {
			out = append(out, d)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (s *InMemoryStore) FindAllActive(_ context.Context) ([]Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Donor
	for _, d := range s.donors {
		if d.Active && d.Status == StatusActive {
			out = append(out, d)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donors[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	d.Status = status
	s.donors[id] = d
	return nil
}

// sortByCreated keeps listings deterministic; map iteration order is not.
func sortByCreated(donors []Donor) {
	sort.Slice(donors, func(i, j int) bool {
		if donors[i].CreatedAt.Equal(donors[j].CreatedAt) {
			return donors[i].ID < donors[j].ID
		}
		return donors[i].CreatedAt.Before(donors[j].CreatedAt)
	})
}
