package service

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"lifelink/internal/donor"
	"lifelink/internal/match"
	"lifelink/internal/recipient"
	dErrors "lifelink/pkg/domain-errors"
)

// batchConcurrency bounds the scoring fan-out. Scoring is CPU-only, so a
// small fixed limit keeps the quadratic pass from starving the request path.
const batchConcurrency = 4

// BatchResult summarizes one full matching pass.
type BatchResult struct {
	MatchesFound int           `json:"matchesFound"`
	Matches      []match.Match `json:"matches"`
	// AIMatchRate is the share of this batch's matches scoring at or above
	// the high-confidence bar, as a percentage. Model confidence, not
	// throughput.
	AIMatchRate float64 `json:"aiMatchRate"`
}

// candidate is one scored pair retained for persistence.
type candidate struct {
	donor     donor.Donor
	recipient recipient.Recipient
	score     int
	breakdown match.Breakdown
}

// RunBatch scores the full cross-product of active donors and waiting
// recipients, persists the pairs that pass the acceptance threshold, and
// republishes the AI match rate. The cost is O(donors x recipients); callers
// own rate-limiting the trigger. Only one batch runs at a time, a concurrent
// call fails with Conflict instead of racing the de-duplication rule.
func (s *Service) RunBatch(ctx context.Context) (BatchResult, error) {
	if !s.batchRunning.CompareAndSwap(false, true) {
		return BatchResult{}, dErrors.New(dErrors.CodeConflict, "batch pass already running")
	}
	defer s.batchRunning.Store(false)

	ctx, span := s.tracer.Start(ctx, "match.RunBatch")
	defer span.End()

	start := s.now()
	defer func() {
		s.metrics.ObserveBatchDuration(s.now().Sub(start))
	}()

	donors, err := s.donors.FindAllActive(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	recipients, err := s.recipients.FindAllWaiting(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	span.SetAttributes(
		attribute.Int("donors", len(donors)),
		attribute.Int("recipients", len(recipients)),
	)

	candidates, err := s.scoreCrossProduct(ctx, donors, recipients, start)
	if err != nil {
		return BatchResult{}, err
	}

	// Highest score first; ties go to the more urgent recipient, then the
	// one waiting longest.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].recipient.UrgencyLevel != candidates[j].recipient.UrgencyLevel {
			return candidates[i].recipient.UrgencyLevel > candidates[j].recipient.UrgencyLevel
		}
		return candidates[i].recipient.RegisteredAt.Before(candidates[j].recipient.RegisteredAt)
	})

	result := BatchResult{Matches: []match.Match{}}
	for _, c := range candidates {
		if m, created := s.persistCandidate(ctx, c.donor, c.recipient, c.score, c.breakdown, start, "batch"); created {
			result.Matches = append(result.Matches, m)
		}
	}
	result.MatchesFound = len(result.Matches)
	span.SetAttributes(attribute.Int("matches_found", result.MatchesFound))

	if result.MatchesFound > 0 {
		result.AIMatchRate = matchRate(result.Matches)
		s.metrics.SetAIMatchRate(result.AIMatchRate)
		if err := s.rates.PublishMatchRate(ctx, result.AIMatchRate); err != nil {
			s.logger.WarnContext(ctx, "publishing match rate failed", "error", err.Error())
		}
	}

	s.logger.InfoContext(ctx, "batch pass finished",
		"donors", len(donors),
		"recipients", len(recipients),
		"matches_found", result.MatchesFound,
		"ai_match_rate", result.AIMatchRate,
	)
	return result, nil
}

// scoreCrossProduct fans scoring out across donors and keeps every pair at
// or above the acceptance threshold.
func (s *Service) scoreCrossProduct(ctx context.Context, donors []donor.Donor, recipients []recipient.Recipient, now time.Time) ([]candidate, error) {
	var (
		mu       sync.Mutex
		retained []candidate
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for _, d := range donors {
		g.Go(func() error {
			var local []candidate
			for _, r := range recipients {
				score, breakdown, err := match.Score(d, r, now)
				if err != nil {
					// A malformed record poisons only its own pairs.
					s.logger.WarnContext(ctx, "scoring failed",
						"donor_id", d.ID,
						"recipient_id", r.ID,
						"error", err.Error(),
					)
					continue
				}
				switch {
				case score == 0:
					s.metrics.IncPairScored("incompatible")
				case score < match.AcceptanceThreshold:
					s.metrics.IncPairScored("below_threshold")
				default:
					s.metrics.IncPairScored("accepted")
					local = append(local, candidate{donor: d, recipient: r, score: score, breakdown: breakdown})
				}
			}
			mu.Lock()
			retained = append(retained, local...)
			mu.Unlock()
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return retained, nil
}

// matchRate is the percentage of matches at or above the high-confidence
// score, rounded to one decimal.
func matchRate(matches []match.Match) float64 {
	high := 0
	for _, m := range matches {
		if m.Score >= match.HighConfidenceScore {
			high++
		}
	}
	return math.Round(float64(high)/float64(len(matches))*1000) / 10
}
