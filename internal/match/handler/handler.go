package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lifelink/internal/match"
	"lifelink/internal/match/service"
	"lifelink/internal/platform/middleware"
	"lifelink/internal/stats"
	"lifelink/internal/transport/http/shared"
	dErrors "lifelink/pkg/domain-errors"
)

// Service defines the matching operations the HTTP layer exposes.
type Service interface {
	ListMatches(ctx context.Context) ([]match.Match, error)
	ListSuggested(ctx context.Context) ([]match.Match, error)
	SetStatus(ctx context.Context, matchID string, newStatus match.Status, actor string) (match.Match, error)
	RunBatch(ctx context.Context) (service.BatchResult, error)
}

// StatsProvider serves the latest statistics snapshot.
type StatsProvider interface {
	Latest(ctx context.Context) (stats.Snapshot, error)
}

// Handler handles match and statistics endpoints.
type Handler struct {
	logger    *slog.Logger
	matches   Service
	stats     StatsProvider
	validator middleware.TokenValidator
}

// New creates a new match Handler.
func New(matches Service, statistics StatsProvider, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		matches:   matches,
		stats:     statistics,
		validator: validator,
	}
}

// Register registers the match routes with the chi router. Reads are open;
// anything that changes state requires an authenticated operator.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))

		r.Get("/api/matches", h.handleListMatches)
		r.Get("/api/matches/ai-suggested", h.handleListSuggested)
		r.Get("/api/statistics", h.handleStatistics)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOperator(h.validator, h.logger))
			r.Post("/api/matches/{id}/status", h.handleSetStatus)
			r.Post("/api/matching/run", h.handleRunBatch)
		})
	})
}

func (h *Handler) handleListMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matches, err := h.matches.ListMatches(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list matches",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list matches"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, toMatchResponses(matches))
}

func (h *Handler) handleListSuggested(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matches, err := h.matches.ListSuggested(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list suggested matches",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list suggested matches"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, toMatchResponses(matches))
}

// handleSetStatus transitions a match. The actor is the authenticated
// operator, never a request field.
func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	operatorID := middleware.GetOperatorID(ctx)
	if operatorID == "" {
		h.logger.ErrorContext(ctx, "operator missing from context despite auth middleware",
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	matchID := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid status update request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.matches.SetStatus(ctx, matchID, match.Status(req.Status), operatorID)
	if err != nil {
		code := dErrors.CodeOf(err)
		switch code {
		case dErrors.CodeBadRequest, dErrors.CodeNotFound, dErrors.CodeIllegalTransition:
			h.logger.WarnContext(ctx, "rejected status update",
				"request_id", requestID,
				"match_id", matchID,
				"error", err.Error(),
			)
			shared.WriteError(w, err)
		default:
			h.logger.ErrorContext(ctx, "failed to update match status",
				"request_id", requestID,
				"match_id", matchID,
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to update match status"))
		}
		return
	}

	shared.WriteJSON(w, http.StatusOK, toMatchResponse(updated))
}

func (h *Handler) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	start := time.Now()
	result, err := h.matches.RunBatch(ctx)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeConflict) {
			h.logger.WarnContext(ctx, "batch pass already running",
				"request_id", requestID,
			)
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "batch pass failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "batch pass failed"))
		return
	}

	h.logger.InfoContext(ctx, "batch pass triggered",
		"request_id", requestID,
		"operator_id", middleware.GetOperatorID(ctx),
		"matches_found", result.MatchesFound,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	shared.WriteJSON(w, http.StatusOK, toBatchResponse(result))
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snapshot, err := h.stats.Latest(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load statistics",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load statistics"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, snapshot)
}
