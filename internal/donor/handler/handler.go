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
	"lifelink/internal/donor"
	"lifelink/internal/platform/middleware"
	"lifelink/internal/transport/http/shared"
	dErrors "lifelink/pkg/domain-errors"
)

// Matcher is notified after a donor registers so candidate matches are
// generated immediately.
type Matcher interface {
	OnDonorRegistered(ctx context.Context, donorID string) error
}

// Handler handles donor registration endpoints.
type Handler struct {
	logger  *slog.Logger
	donors  donor.Store
	matcher Matcher
	now     func() time.Time
}

// New creates a new donor Handler.
func New(donors donor.Store, matcher Matcher, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		donors:  donors,
		matcher: matcher,
		now:     time.Now,
	}
}

// Register registers the donor routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))

		r.Post("/api/donors", h.handleRegister)
		r.Get("/api/donors", h.handleList)
	})
}

type registerRequest struct {
	Name      string `json:"name"`
	BloodType string `json:"bloodType"`
	Organ     string `json:"organ"`
	Location  string `json:"location"`
	Age       int    `json:"age"`
}

type donorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BloodType string    `json:"bloodType"`
	Organ     string    `json:"organ"`
	Location  string    `json:"location"`
	Age       int       `json:"age"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func toResponse(d donor.Donor) donorResponse {
	return donorResponse{
		ID:        d.ID,
		Name:      d.Name,
		BloodType: string(d.BloodType),
		Organ:     string(d.Organ),
		Location:  d.Location,
		Age:       d.Age,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
	}
}

// handleRegister persists the donor and then runs matching against the
// waiting list. Matching failures do not undo a completed registration.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid donor registration request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	d := donor.Donor{
		ID:        uuid.NewString(),
		Name:      req.Name,
		BloodType: domain.BloodType(req.BloodType),
		Organ:     domain.Organ(req.Organ),
		Location:  req.Location,
		Age:       req.Age,
		Active:    true,
		Status:    donor.StatusActive,
		CreatedAt: h.now().UTC(),
	}
	if err := d.Validate(); err != nil {
		h.logger.WarnContext(ctx, "rejected donor registration",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	if err := h.donors.Insert(ctx, d); err != nil {
		h.logger.ErrorContext(ctx, "failed to register donor",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to register donor"))
		return
	}

	if err := h.matcher.OnDonorRegistered(ctx, d.ID); err != nil {
		h.logger.ErrorContext(ctx, "matching after donor registration failed",
			"request_id", requestID,
			"donor_id", d.ID,
			"error", err.Error(),
		)
	}

	h.logger.InfoContext(ctx, "donor registered",
		"request_id", requestID,
		"donor_id", d.ID,
		"organ", string(d.Organ),
	)
	shared.WriteJSON(w, http.StatusCreated, toResponse(d))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donors, err := h.donors.FindAllActive(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list donors",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list donors"))
		return
	}
	out := make([]donorResponse, 0, len(donors))
	for _, d := range donors {
		out = append(out, toResponse(d))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
