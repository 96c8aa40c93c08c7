package recipient

import (
	"context"
	"sort"
	"sync"

	"lifelink/internal/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// InMemoryStore keeps recipients in a map for tests and single-node
// deployments.
type InMemoryStore struct {
	mu         sync.RWMutex
	recipients map[string]Recipient
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{recipients: make(map[string]Recipient)}
}

func (s *InMemoryStore) Insert(_ context.Context, r Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipients[r.ID]; ok {
		return dErrors.New(dErrors.CodeConflict, "recipient already exists")
	}
	s.recipients[r.ID] = r
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.recipients[id]; ok {
		return r, nil
	}
	return Recipient{}, dErrors.New(dErrors.CodeNotFound, "recipient not found")
}

func (s *InMemoryStore) FindWaitingByOrgan(_ context.Context, organ domain.Organ) ([]Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Recipient
	for _, r := range s.recipients {
		if r.Active && r.Status == StatusWaiting && r.OrganNeeded == organ {
			out = append(out, r)
		}
	}
	sortByRegistered(out)
	return out, nil
}

func (s *InMemoryStore) FindAllWaiting(_ context.Context) ([]Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Recipient
	for _, r := range s.recipients {
		if r.Active && r.Status == StatusWaiting {
			out = append(out, r)
		}
	}
	sortByRegistered(out)
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipients[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "recipient not found")
	}
	r.Status = status
	s.recipients[id] = r
	return nil
}

func sortByRegistered(recipients []Recipient) {
	sort.Slice(recipients, func(i, j int) bool {
		if recipients[i].RegisteredAt.Equal(recipients[j].RegisteredAt) {
			return recipients[i].ID < recipients[j].ID
		}
		return recipients[i].RegisteredAt.Before(recipients[j].RegisteredAt)
	})
}
