package match

import (
	"context"
	"sort"
	"sync"

	dErrors "lifelink/pkg/domain-errors"
)

// InMemoryStore keeps matches in maps for tests and single-node deployments.
// The pair index under the write lock gives the same check-and-insert
// atomicity a unique constraint provides in SQL.
type InMemoryStore struct {
	mu      sync.RWMutex
	matches map[string]Match
	// pairs maps donorID|recipientID to the existing match ID.
	pairs map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		matches: make(map[string]Match),
		pairs:   make(map[string]string),
	}
}

func pairKey(donorID, recipientID string) string {
	return donorID + "|" + recipientID
}

func (s *InMemoryStore) Insert(_ context.Context, m Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(m.DonorID, m.RecipientID)
	if _, ok := s.pairs[key]; ok {
		return dErrors.New(dErrors.CodeDuplicateMatch, "match already exists for pair")
	}
	s.matches[m.ID] = m
	s.pairs[key] = m.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.matches[id]; ok {
		return m, nil
	}
	return Match{}, dErrors.New(dErrors.CodeNotFound, "match not found")
}

func (s *InMemoryStore) FindByPair(_ context.Context, donorID, recipientID string) (Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.pairs[pairKey(donorID, recipientID)]; ok {
		return s.matches[id], nil
	}
	return Match{}, dErrors.New(dErrors.CodeNotFound, "match not found")
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) ListPendingByScore(_ context.Context) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Match
	for _, m := range s.matches {
		if m.Status == StatusPending {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, cmd TransitionCommand) (Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[cmd.MatchID]
	if !ok {
		return Match{}, dErrors.New(dErrors.CodeNotFound, "match not found")
	}
	if m.Status != cmd.FromStatus {
		return Match{}, dErrors.New(dErrors.CodeIllegalTransition,
			"match is "+string(m.Status)+", not "+string(cmd.FromStatus))
	}
	m.Status = cmd.NewStatus
	if cmd.ApprovedBy != "" {
		m.ApprovedBy = cmd.ApprovedBy
	}
	if cmd.ApprovedAt != nil {
		m.ApprovedAt = cmd.ApprovedAt
	}
	s.matches[cmd.MatchID] = m
	return m, nil
}
