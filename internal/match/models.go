package match

import (
	"time"

	"lifelink/internal/domain"
	"lifelink/internal/donor"
	"lifelink/internal/recipient"
	dErrors "lifelink/pkg/domain-errors"
)

// Status is the match lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusComplete Status = "completed"
)

// legalTransitions is the full state machine. Rejected and completed are
// terminal.
var legalTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusComplete},
}

// Valid reports whether s is a known match status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusComplete:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Breakdown records the deterministic factor scores behind a composite
// compatibility score, each on a 0-100 scale.
type Breakdown struct {
	Medical   float64 `json:"medical"`
	Proximity float64 `json:"proximity"`
	Urgency   float64 `json:"urgency"`
	Waiting   float64 `json:"waiting"`
}

// Match is a scored, stateful link between one donor and one recipient for a
// specific organ. At most one match may exist per (donor, recipient) pair;
// the store enforces that. A match is never deleted, only transitioned.
type Match struct {
	ID          string
	DonorID     string
	RecipientID string
	Organ       domain.Organ
	Score       int
	Breakdown   Breakdown
	Status      Status
	CreatedAt   time.Time
	ApprovedBy  string
	ApprovedAt  *time.Time
}

// NewMatch builds a pending match from a scored pair. Score 0 means
// incompatible and must never become a match.
func NewMatch(id string, d donor.Donor, r recipient.Recipient, score int, breakdown Breakdown, now time.Time) (Match, error) {
	if score <= 0 || score > 100 {
		return Match{}, dErrors.New(dErrors.CodeInvalidInput, "match score must be in 1-100")
	}
	if d.Organ != r.OrganNeeded {
		return Match{}, dErrors.New(dErrors.CodeInvalidInput, "donor organ does not satisfy recipient need")
	}
	return Match{
		ID:          id,
		DonorID:     d.ID,
		RecipientID: r.ID,
		Organ:       d.Organ,
		Score:       score,
		Breakdown:   breakdown,
		Status:      StatusPending,
		CreatedAt:   now,
	}, nil
}

// TransitionCommand describes one lifecycle step and every record it touches,
// so stores can apply the whole group atomically.
type TransitionCommand struct {
	MatchID string
	// FromStatus is the status the match must still hold when the update
	// lands. Stores refuse the command if the row has moved on, so two
	// concurrent transitions on one match cannot both apply.
	FromStatus Status
	NewStatus  Status
	Actor      string
	At         time.Time
	ApprovedBy string
	ApprovedAt *time.Time
	// Donor/recipient side effects. Empty string means no change.
	DonorID            string
	NewDonorStatus     donor.Status
	RecipientID        string
	NewRecipientStatus recipient.Status
}
