package donor

import (
	"time"

	"lifelink/internal/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// Status is the donor lifecycle state. Only the match lifecycle manager moves
// a donor past active.
type Status string

const (
	StatusActive    Status = "active"
	StatusMatched   Status = "matched"
	StatusDonated   Status = "donated"
	StatusWithdrawn Status = "withdrawn"
)

// Donor is a registered organ donor. Registration details beyond what the
// matching engine scores on (contact data, encrypted medical records) live
// with the registration subsystem.
type Donor struct {
	ID        string
	Name      string
	BloodType domain.BloodType
	Organ     domain.Organ
	Location  string
	Age       int
	Active    bool
	Status    Status
	CreatedAt time.Time
}

// Validate checks the fields the compatibility scorer depends on.
func (d Donor) Validate() error {
	if d.ID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "donor id is required")
	}
	if !d.BloodType.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "donor blood type is invalid")
	}
	if !d.Organ.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "donor organ type is invalid")
	}
	if d.Location == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "donor location is required")
	}
	if d.Age <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "donor age is required")
	}
	return nil
}
