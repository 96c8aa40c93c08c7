package recipient

import (
	"time"

	"lifelink/internal/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// Status is the recipient lifecycle state. Only the match lifecycle manager
// moves a recipient past waiting.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusMatched  Status = "matched"
	StatusReceived Status = "received"
)

// Recipient is a registered transplant candidate. RegisteredAt feeds the
// waiting-time score, so it is part of the scoring snapshot rather than an
// audit detail.
type Recipient struct {
	ID           string
	Name         string
	BloodType    domain.BloodType
	OrganNeeded  domain.Organ
	Location     string
	Age          int
	UrgencyLevel int
	Active       bool
	Status       Status
	RegisteredAt time.Time
}

// Validate checks the fields the compatibility scorer depends on.
func (r Recipient) Validate() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient id is required")
	}
	if !r.BloodType.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient blood type is invalid")
	}
	if !r.OrganNeeded.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient organ type is invalid")
	}
	if r.Location == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient location is required")
	}
	if r.Age <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient age is required")
	}
	if r.UrgencyLevel < 1 || r.UrgencyLevel > 10 {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient urgency level must be 1-10")
	}
	if r.RegisteredAt.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient registration time is required")
	}
	return nil
}
