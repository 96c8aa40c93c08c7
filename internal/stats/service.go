package stats

import (
	"context"
	"math"
	"sync"
	"time"

	"lifelink/internal/donor"
	"lifelink/internal/match"
	"lifelink/internal/recipient"
)

// Service rebuilds the aggregate statistics snapshot from the live stores.
// Recompute-and-replace is the only write path.
type Service struct {
	donors     donor.Store
	recipients recipient.Store
	matches    match.Store
	cache      Cache
	now        func() time.Time

	// aiMatchRate is published by the batch engine between recomputes.
	mu          sync.Mutex
	aiMatchRate float64
}

func NewService(donors donor.Store, recipients recipient.Store, matches match.Store, cache Cache) *Service {
	return &Service{
		donors:     donors,
		recipients: recipients,
		matches:    matches,
		cache:      cache,
		now:        time.Now,
	}
}

// PublishMatchRate records the AI match rate from the latest batch pass and
// refreshes the snapshot so dashboards pick it up immediately.
func (s *Service) PublishMatchRate(ctx context.Context, rate float64) error {
	s.mu.Lock()
	s.aiMatchRate = rate
	s.mu.Unlock()
	_, err := s.Recompute(ctx)
	return err
}

// Recompute rebuilds the snapshot from scratch and replaces the cached one.
func (s *Service) Recompute(ctx context.Context) (Snapshot, error) {
	donors, err := s.donors.FindAllActive(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	recipients, err := s.recipients.FindAllWaiting(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	matches, err := s.matches.ListAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	rate := s.aiMatchRate
	s.mu.Unlock()

	snapshot := Snapshot{
		TotalDonors:       len(donors),
		TotalRecipients:   len(recipients),
		AIMatchRate:       rate,
		OrganDistribution: make(map[string]int),
		GeneratedAt:       s.now(),
	}

	var scoreSum int
	for _, m := range matches {
		snapshot.OrganDistribution[string(m.Organ)]++
		scoreSum += m.Score
		switch m.Status {
		case match.StatusPending:
			snapshot.PendingMatches++
		case match.StatusComplete:
			snapshot.CompletedMatches++
		}
	}
	if len(matches) > 0 {
		snapshot.AverageScore = math.Round(float64(scoreSum)/float64(len(matches))*10) / 10
	}

	if err := s.cache.Put(ctx, snapshot); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// Latest serves the cached snapshot, recomputing once when the cache is
// still empty.
func (s *Service) Latest(ctx context.Context) (Snapshot, error) {
	snapshot, ok, err := s.cache.Get(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if ok {
		return snapshot, nil
	}
	return s.Recompute(ctx)
}
