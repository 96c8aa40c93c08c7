package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lifelink/internal/ledger"
	"lifelink/internal/platform/middleware"
	"lifelink/internal/transport/http/shared"
	dErrors "lifelink/pkg/domain-errors"
)

// Reader serves notarized matching events, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]ledger.Event, error)
}

// Handler handles the ledger read endpoints.
type Handler struct {
	logger *slog.Logger
	events Reader
}

// New creates a new ledger Handler.
func New(events Reader, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		events: events,
	}
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))

		r.Get("/api/transactions/recent", h.handleRecent)
	})
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

type eventResponse struct {
	ID          string    `json:"id"`
	TxHash      string    `json:"txHash"`
	Type        string    `json:"type"`
	MatchID     string    `json:"matchId"`
	DonorID     string    `json:"donorId"`
	RecipientID string    `json:"recipientId"`
	Organ       string    `json:"organ"`
	Score       int       `json:"score"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toEventResponses(events []ledger.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:          e.ID,
			TxHash:      e.TxHash,
			Type:        string(e.Type),
			MatchID:     e.MatchID,
			DonorID:     e.DonorID,
			RecipientID: e.RecipientID,
			Organ:       e.Organ,
			Score:       e.Score,
			Status:      e.Status,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	events, err := h.events.Recent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list ledger events",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list recent transactions"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEventResponses(events))
}
