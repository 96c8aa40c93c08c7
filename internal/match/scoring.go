package match

import (
	"math"
	"strings"
	"time"

	"lifelink/internal/donor"
	"lifelink/internal/recipient"
)

// Scoring is pure domain logic - no I/O, no side effects. Given identical
// snapshots and the same reference time it always produces the same score,
// which keeps matching reproducible across the orchestrator and batch passes.

const (
	// AcceptanceThreshold is the minimum composite score required to create
	// a match.
	AcceptanceThreshold = 50
	// HighConfidenceScore marks the matches counted into the AI match rate.
	HighConfidenceScore = 85

	// bloodGateScore is the fixed medical contribution for passing the
	// blood/organ gate; ageProximityMax tops up the raw medical sub-score
	// to medicalRawMax.
	bloodGateScore  = 40
	ageProximityMax = 20
	medicalRawMax   = bloodGateScore + ageProximityMax

	// fullyWaitedDays is the waiting time at which the waiting sub-score
	// saturates.
	fullyWaitedDays = 100

	// differentLocationProximity is the deterministic proximity sub-score
	// for donors and recipients in different locations. Same location
	// always scores 100 and distinct locations must never exceed it.
	differentLocationProximity = 50
)

// Composite weights: 40% medical, 20% proximity, 20% urgency, 20% waiting.
const (
	weightMedical   = 0.4
	weightProximity = 0.2
	weightUrgency   = 0.2
	weightWaiting   = 0.2
)

// Score computes the compatibility score for a donor/recipient pair at the
// given reference time. It returns 0 with an empty breakdown when the pair is
// incompatible (organ mismatch or blood gate failure); 0 always means "do not
// create a match". Missing or malformed fields fail with InvalidInput rather
// than defaulting to a number.
func Score(d donor.Donor, r recipient.Recipient, now time.Time) (int, Breakdown, error) {
	if err := d.Validate(); err != nil {
		return 0, Breakdown{}, err
	}
	if err := r.Validate(); err != nil {
		return 0, Breakdown{}, err
	}

	// Hard gate: organ need and ABO/Rh compatibility.
	if d.Organ != r.OrganNeeded || !d.BloodType.CanDonateTo(r.BloodType) {
		return 0, Breakdown{}, nil
	}

	breakdown := Breakdown{
		Medical:   medicalScore(d.Age, r.Age),
		Proximity: proximityScore(d.Location, r.Location),
		Urgency:   urgencyScore(r.UrgencyLevel),
		Waiting:   waitingScore(r.RegisteredAt, now),
	}

	composite := weightMedical*breakdown.Medical +
		weightProximity*breakdown.Proximity +
		weightUrgency*breakdown.Urgency +
		weightWaiting*breakdown.Waiting
	// One decimal for reporting, nearest integer for storage.
	composite = math.Round(composite*10) / 10
	return int(math.Round(composite)), breakdown, nil
}

// medicalScore combines the blood gate base with age proximity banding and
// normalizes the raw 0-60 range to the 0-100 sub-scale.
func medicalScore(donorAge, recipientAge int) float64 {
	raw := bloodGateScore + ageProximityPoints(donorAge, recipientAge)
	return float64(raw) / medicalRawMax * 100
}

func ageProximityPoints(donorAge, recipientAge int) int {
	diff := donorAge - recipientAge
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 5:
		return 20
	case diff <= 10:
		return 15
	case diff <= 20:
		return 10
	default:
		return 5
	}
}

// proximityScore is a simplified distance model: shared location labels score
// the maximum, anything else a fixed lower value.
func proximityScore(donorLocation, recipientLocation string) float64 {
	if strings.EqualFold(donorLocation, recipientLocation) {
		return 100
	}
	return differentLocationProximity
}

// urgencyScore is linear in the 1-10 urgency level.
func urgencyScore(level int) float64 {
	return float64(level) * 10
}

// waitingScore grows one point per waited day and saturates at
// fullyWaitedDays.
func waitingScore(registeredAt, now time.Time) float64 {
	days := int(now.Sub(registeredAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	if days > fullyWaitedDays {
		days = fullyWaitedDays
	}
	return float64(days)
}
