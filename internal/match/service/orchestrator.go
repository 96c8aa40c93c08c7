package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lifelink/internal/donor"
	"lifelink/internal/ledger"
	"lifelink/internal/match"
	"lifelink/internal/recipient"
	dErrors "lifelink/pkg/domain-errors"
)

// OnDonorRegistered scans the waiting recipients for the donor's organ and
// creates pending matches for every pair at or above the acceptance
// threshold. The registration flow calls it once right after the donor record
// is durable; re-invoking it is safe because pairs that already have a match
// are skipped.
func (s *Service) OnDonorRegistered(ctx context.Context, donorID string) error {
	d, err := s.donors.FindByID(ctx, donorID)
	if err != nil {
		return err
	}

	candidates, err := s.recipients.FindWaitingByOrgan(ctx, d.Organ)
	if err != nil {
		return err
	}

	now := s.now()
	for _, r := range candidates {
		s.considerPair(ctx, d, r, now, "orchestrator")
	}
	return nil
}

// OnRecipientRegistered is the mirror scan: active donors offering the organ
// the new recipient needs.
func (s *Service) OnRecipientRegistered(ctx context.Context, recipientID string) error {
	r, err := s.recipients.FindByID(ctx, recipientID)
	if err != nil {
		return err
	}

	candidates, err := s.donors.FindActiveByOrgan(ctx, r.OrganNeeded)
	if err != nil {
		return err
	}

	now := s.now()
	for _, d := range candidates {
		s.considerPair(ctx, d, r, now, "orchestrator")
	}
	return nil
}

// considerPair scores one pair and persists a pending match when it passes
// the threshold and the pair is not already matched. Failures on one pair
// never abort the scan; the remaining candidates still get their chance.
func (s *Service) considerPair(ctx context.Context, d donor.Donor, r recipient.Recipient, now time.Time, origin string) {
	score, breakdown, err := match.Score(d, r, now)
	if err != nil {
		s.logger.WarnContext(ctx, "scoring failed",
			"donor_id", d.ID,
			"recipient_id", r.ID,
			"error", err.Error(),
		)
		return
	}
	if score == 0 {
		s.metrics.IncPairScored("incompatible")
		return
	}
	if score < match.AcceptanceThreshold {
		s.metrics.IncPairScored("below_threshold")
		return
	}
	s.metrics.IncPairScored("accepted")

	s.persistCandidate(ctx, d, r, score, breakdown, now, origin)
}

// persistCandidate applies the de-duplication rule and inserts a pending
// match. It reports whether a match was created; every failure path is
// logged and skipped rather than propagated, per-candidate persistence never
// aborts a scan.
func (s *Service) persistCandidate(ctx context.Context, d donor.Donor, r recipient.Recipient, score int, breakdown match.Breakdown, now time.Time, origin string) (match.Match, bool) {
	if _, err := s.matches.FindByPair(ctx, d.ID, r.ID); err == nil {
		return match.Match{}, false // already matched
	} else if !dErrors.Is(err, dErrors.CodeNotFound) {
		s.logger.WarnContext(ctx, "pair lookup failed",
			"donor_id", d.ID,
			"recipient_id", r.ID,
			"error", err.Error(),
		)
		return match.Match{}, false
	}

	m, err := match.NewMatch(uuid.NewString(), d, r, score, breakdown, now)
	if err != nil {
		s.logger.WarnContext(ctx, "invalid match candidate",
			"donor_id", d.ID,
			"recipient_id", r.ID,
			"error", err.Error(),
		)
		return match.Match{}, false
	}

	if err := s.matches.Insert(ctx, m); err != nil {
		if dErrors.Is(err, dErrors.CodeDuplicateMatch) {
			// Lost the race to a concurrent scan; the invariant held.
			s.logger.DebugContext(ctx, "duplicate match skipped",
				"donor_id", d.ID,
				"recipient_id", r.ID,
			)
			return match.Match{}, false
		}
		s.logger.ErrorContext(ctx, "match insert failed",
			"donor_id", d.ID,
			"recipient_id", r.ID,
			"error", err.Error(),
		)
		return match.Match{}, false
	}

	s.metrics.IncMatchCreated(origin)
	s.ledger.Emit(ctx, ledger.Event{
		Type:        ledger.EventMatchCreated,
		MatchID:     m.ID,
		DonorID:     d.ID,
		RecipientID: r.ID,
		Organ:       string(m.Organ),
		Score:       m.Score,
		Status:      string(m.Status),
	})
	s.logger.InfoContext(ctx, "match created",
		"match_id", m.ID,
		"donor_id", d.ID,
		"recipient_id", r.ID,
		"organ", string(m.Organ),
		"score", m.Score,
	)
	return m, true
}
