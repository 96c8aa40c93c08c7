package handler

import (
	"time"

	"lifelink/internal/match"
	"lifelink/internal/match/service"
)

type updateStatusRequest struct {
	Status string `json:"status"`
}

type matchResponse struct {
	ID          string          `json:"id"`
	DonorID     string          `json:"donorId"`
	RecipientID string          `json:"recipientId"`
	Organ       string          `json:"organ"`
	Score       int             `json:"compatibilityScore"`
	Breakdown   match.Breakdown `json:"breakdown"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	ApprovedBy  string          `json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time      `json:"approvedAt,omitempty"`
}

type batchResponse struct {
	MatchesFound int             `json:"matchesFound"`
	Matches      []matchResponse `json:"matches"`
	AIMatchRate  float64         `json:"aiMatchRate"`
}

func toMatchResponse(m match.Match) matchResponse {
	return matchResponse{
		ID:          m.ID,
		DonorID:     m.DonorID,
		RecipientID: m.RecipientID,
		Organ:       string(m.Organ),
		Score:       m.Score,
		Breakdown:   m.Breakdown,
		Status:      string(m.Status),
		CreatedAt:   m.CreatedAt,
		ApprovedBy:  m.ApprovedBy,
		ApprovedAt:  m.ApprovedAt,
	}
}

func toMatchResponses(matches []match.Match) []matchResponse {
	out := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, toMatchResponse(m))
	}
	return out
}

func toBatchResponse(result service.BatchResult) batchResponse {
	return batchResponse{
		MatchesFound: result.MatchesFound,
		Matches:      toMatchResponses(result.Matches),
		AIMatchRate:  result.AIMatchRate,
	}
}
