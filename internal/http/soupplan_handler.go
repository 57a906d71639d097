package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/domain"
	"github.com/Karlivar21/Bakari-Backend/internal/service"
)

// SoupPlanService reads and replaces the weekly soup plan.
type SoupPlanService interface {
	Get(ctx context.Context) (*domain.SoupPlan, error)
	Update(ctx context.Context, plan *domain.SoupPlan) error
}

type SoupPlanHandler struct {
	plans   SoupPlanService
	timeout time.Duration
}

func NewSoupPlanHandler(plans SoupPlanService, timeout time.Duration) *SoupPlanHandler {
	return &SoupPlanHandler{
		plans:   plans,
		timeout: timeout,
	}
}

// GET /api/soupplan (public)
func (h *SoupPlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	plan, err := h.plans.Get(ctx)
	if err != nil {
		log.Printf("request %s: failed to get soup plan: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// PUT /api/soupplan (staff)
func (h *SoupPlanHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var plan domain.SoupPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	plan.UpdatedAt = time.Now()

	if err := h.plans.Update(ctx, &plan); err != nil {
		if errors.Is(err, service.ErrInvalidSoupDay) {
			respondError(w, http.StatusBadRequest, "invalid_day", err.Error())
			return
		}
		log.Printf("request %s: failed to update soup plan: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	log.Printf("soup plan updated by %s", getUsername(r.Context()))
	respondJSON(w, http.StatusOK, plan)
}
