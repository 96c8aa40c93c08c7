package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"lifelink/internal/donor"
	"lifelink/internal/ledger"
	"lifelink/internal/match"
	"lifelink/internal/recipient"
	dErrors "lifelink/pkg/domain-errors"
)

// SetStatus moves a match through its lifecycle. The match update and the
// donor/recipient side effects run as one transaction: either the whole
// group lands or none of it does. Illegal transitions fail without touching
// anything.
func (s *Service) SetStatus(ctx context.Context, matchID string, newStatus match.Status, actor string) (match.Match, error) {
	ctx, span := s.tracer.Start(ctx, "match.SetStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("match_id", matchID),
		attribute.String("new_status", string(newStatus)),
	)

	if !newStatus.Valid() {
		return match.Match{}, dErrors.New(dErrors.CodeBadRequest, "unknown match status")
	}
	if actor == "" {
		return match.Match{}, dErrors.New(dErrors.CodeBadRequest, "actor is required")
	}

	// The legality check runs inside the transaction, and the store applies
	// the match update only while the row still holds the status that was
	// read. Two concurrent transitions on one match therefore serialize:
	// the loser either sees the new status on its read or matches zero rows
	// on its conditional update, and its side effects roll back with it.
	// Side effects still run before the match row so a failed group leaves
	// the match pending under the in-memory runner too, which cannot roll
	// back.
	var updated match.Match
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		current, txErr := s.matches.FindByID(ctx, matchID)
		if txErr != nil {
			return txErr
		}
		if !current.Status.CanTransitionTo(newStatus) {
			return dErrors.New(dErrors.CodeIllegalTransition,
				"cannot transition match from "+string(current.Status)+" to "+string(newStatus))
		}
		cmd := s.buildTransition(current, newStatus, actor)
		if cmd.NewDonorStatus != "" {
			if txErr := s.donors.UpdateStatus(ctx, cmd.DonorID, cmd.NewDonorStatus); txErr != nil {
				return txErr
			}
		}
		if cmd.NewRecipientStatus != "" {
			if txErr := s.recipients.UpdateStatus(ctx, cmd.RecipientID, cmd.NewRecipientStatus); txErr != nil {
				return txErr
			}
		}
		updated, txErr = s.matches.UpdateStatus(ctx, cmd)
		return txErr
	})
	if err != nil {
		return match.Match{}, err
	}

	s.metrics.IncTransition(string(newStatus))
	s.ledger.Emit(ctx, ledger.Event{
		Type:        transitionEvent(newStatus),
		MatchID:     updated.ID,
		DonorID:     updated.DonorID,
		RecipientID: updated.RecipientID,
		Organ:       string(updated.Organ),
		Score:       updated.Score,
		Status:      string(updated.Status),
	})
	s.logger.InfoContext(ctx, "match transitioned",
		"match_id", updated.ID,
		"status", string(updated.Status),
		"actor", actor,
	)
	return updated, nil
}

// buildTransition captures every record a transition touches in one command
// so the storage layer can apply the group atomically.
func (s *Service) buildTransition(current match.Match, newStatus match.Status, actor string) match.TransitionCommand {
	cmd := match.TransitionCommand{
		MatchID:    current.ID,
		FromStatus: current.Status,
		NewStatus:  newStatus,
		Actor:      actor,
		At:         s.now(),
	}
	switch newStatus {
	case match.StatusApproved:
		at := cmd.At
		cmd.ApprovedBy = actor
		cmd.ApprovedAt = &at
		cmd.DonorID = current.DonorID
		cmd.NewDonorStatus = donor.StatusMatched
		cmd.RecipientID = current.RecipientID
		cmd.NewRecipientStatus = recipient.StatusMatched
	case match.StatusComplete:
		cmd.DonorID = current.DonorID
		cmd.NewDonorStatus = donor.StatusDonated
		cmd.RecipientID = current.RecipientID
		cmd.NewRecipientStatus = recipient.StatusReceived
	case match.StatusRejected:
		// Donor and recipient stay eligible for other matches.
	}
	return cmd
}

func transitionEvent(status match.Status) ledger.EventType {
	switch status {
	case match.StatusApproved:
		return ledger.EventMatchApproved
	case match.StatusComplete:
		return ledger.EventTransplantCompleted
	default:
		return ledger.EventMatchRejected
	}
}
