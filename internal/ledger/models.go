package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// EventType classifies a notarized matching event.
type EventType string

const (
	EventMatchCreated        EventType = "match_created"
	EventMatchApproved       EventType = "match_approval"
	EventMatchRejected       EventType = "match_rejection"
	EventTransplantCompleted EventType = "transplant_completion"
)

// Event is one append-only ledger record. The tx hash stands in for a real
// distributed-ledger transaction id; the matching core never reads it back,
// so notarization stays best-effort.
type Event struct {
	ID          string
	TxHash      string
	Type        EventType
	MatchID     string
	DonorID     string
	RecipientID string
	Organ       string
	Score       int
	Status      string
	CreatedAt   time.Time
}

// NewTxHash derives a deterministic pseudo transaction hash for an event.
func NewTxHash(eventType EventType, matchID string, at time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", eventType, matchID, at.UnixNano())))
	return "0x" + hex.EncodeToString(sum[:])
}
