package stats

import "time"

// Snapshot is the derived statistics view served to dashboards. It has no
// identity of its own: the service rebuilds and replaces it wholesale, never
// patches it in place.
type Snapshot struct {
	TotalDonors       int            `json:"total_donors"`
	TotalRecipients   int            `json:"total_recipients"`
	PendingMatches    int            `json:"pending_matches"`
	CompletedMatches  int            `json:"completed_matches"`
	AverageScore      float64        `json:"average_score"`
	AIMatchRate       float64        `json:"ai_match_rate"`
	OrganDistribution map[string]int `json:"organ_distribution"`
	GeneratedAt       time.Time      `json:"generated_at"`
}
