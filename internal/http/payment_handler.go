package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/provider"
	"github.com/Karlivar21/Bakari-Backend/internal/repository"
	"github.com/Karlivar21/Bakari-Backend/internal/service"
	"github.com/sony/gobreaker/v2"
)

// PaymentService is the slice of the payment service the handlers need.
type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, orderID string) (*service.CheckoutSessionResult, error)
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header) (*service.WebhookResult, error)
}

type PaymentHandler struct {
	payments PaymentService
	timeout  time.Duration
}

func NewPaymentHandler(payments PaymentService, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		timeout:  timeout,
	}
}

type CreateSessionRequestDTO struct {
	OrderID string `json:"order_id"`
}

// POST /api/payment/checkout-session
func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateSessionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	result, err := h.payments.CreateCheckoutSession(ctx, req.OrderID)
	if err != nil {
		handlePaymentError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// POST /api/payment/webhook
//
// The raw body is read before any parsing so the signature covers the exact
// bytes the provider sent. A non-2xx response makes the provider redeliver,
// so only signature failures and internal faults return errors.
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read request body")
		return
	}

	result, err := h.payments.HandleWebhook(ctx, payload, r.Header)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidSignature) {
			respondError(w, http.StatusUnauthorized, "invalid_signature", "webhook signature verification failed")
			return
		}
		log.Printf("request %s: webhook processing failed: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "received", "outcome": result.Outcome})
}

func handlePaymentError(w http.ResponseWriter, r *http.Request, err error) {
	var sessionErr *provider.SessionError
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, service.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, service.ErrOrderNotPayable):
		respondError(w, http.StatusConflict, "not_payable", err.Error())
	case errors.Is(err, provider.ErrProviderAuth):
		log.Printf("request %s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusBadGateway, "provider_auth_failed", "payment provider authentication failed")
	case errors.As(err, &sessionErr):
		log.Printf("request %s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusBadGateway, "provider_rejected", "payment provider rejected the session request")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		log.Printf("request %s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusBadGateway, "provider_unavailable", "payment provider temporarily unavailable")
	default:
		log.Printf("request %s: failed to create checkout session: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
