package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lifelink/internal/domain"
	"lifelink/internal/platform/middleware"
	"lifelink/internal/recipient"
	"lifelink/internal/transport/http/shared"
	dErrors "lifelink/pkg/domain-errors"
)

// Matcher is notified after a recipient registers so candidate matches are
// generated immediately.
type Matcher interface {
	OnRecipientRegistered(ctx context.Context, recipientID string) error
}

// Handler handles recipient registration endpoints.
type Handler struct {
	logger     *slog.Logger
	recipients recipient.Store
	matcher    Matcher
	now        func() time.Time
}

// New creates a new recipient Handler.
func New(recipients recipient.Store, matcher Matcher, logger *slog.Logger) *Handler {
	return &Handler{
		logger:     logger,
		recipients: recipients,
		matcher:    matcher,
		now:        time.Now,
	}
}

// Register registers the recipient routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))

		r.Post("/api/recipients", h.handleRegister)
		r.Get("/api/recipients", h.handleList)
	})
}

type registerRequest struct {
	Name         string `json:"name"`
	BloodType    string `json:"bloodType"`
	OrganNeeded  string `json:"organNeeded"`
	Location     string `json:"location"`
	Age          int    `json:"age"`
	UrgencyLevel int    `json:"urgencyLevel"`
}

type recipientResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BloodType    string    `json:"bloodType"`
	OrganNeeded  string    `json:"organNeeded"`
	Location     string    `json:"location"`
	Age          int       `json:"age"`
	UrgencyLevel int       `json:"urgencyLevel"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func toResponse(r recipient.Recipient) recipientResponse {
	return recipientResponse{
		ID:           r.ID,
		Name:         r.Name,
		BloodType:    string(r.BloodType),
		OrganNeeded:  string(r.OrganNeeded),
		Location:     r.Location,
		Age:          r.Age,
		UrgencyLevel: r.UrgencyLevel,
		Status:       string(r.Status),
		RegisteredAt: r.RegisteredAt,
	}
}

// handleRegister persists the recipient and then runs matching against the
// active donor pool. Matching failures do not undo a completed registration.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid recipient registration request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec := recipient.Recipient{
		ID:           uuid.NewString(),
		Name:         req.Name,
		BloodType:    domain.BloodType(req.BloodType),
		OrganNeeded:  domain.Organ(req.OrganNeeded),
		Location:     req.Location,
		Age:          req.Age,
		UrgencyLevel: req.UrgencyLevel,
		Active:       true,
		Status:       recipient.StatusWaiting,
		RegisteredAt: h.now().UTC(),
	}
	if err := rec.Validate(); err != nil {
		h.logger.WarnContext(ctx, "rejected recipient registration",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	if err := h.recipients.Insert(ctx, rec); err != nil {
		h.logger.ErrorContext(ctx, "failed to register recipient",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to register recipient"))
		return
	}

	if err := h.matcher.OnRecipientRegistered(ctx, rec.ID); err != nil {
		h.logger.ErrorContext(ctx, "matching after recipient registration failed",
			"request_id", requestID,
			"recipient_id", rec.ID,
			"error", err.Error(),
		)
	}

	h.logger.InfoContext(ctx, "recipient registered",
		"request_id", requestID,
		"recipient_id", rec.ID,
		"organ_needed", string(rec.OrganNeeded),
		"urgency", rec.UrgencyLevel,
	)
	shared.WriteJSON(w, http.StatusCreated, toResponse(rec))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recipients, err := h.recipients.FindAllWaiting(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list recipients",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list recipients"))
		return
	}
	out := make([]recipientResponse, 0, len(recipients))
	for _, rec := range recipients {
		out = append(out, toResponse(rec))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
