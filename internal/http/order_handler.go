package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/domain"
	"github.com/Karlivar21/Bakari-Backend/internal/pricing"
	"github.com/Karlivar21/Bakari-Backend/internal/repository"
	"github.com/Karlivar21/Bakari-Backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// OrderService is the slice of the order service the handlers need.
type OrderService interface {
	CreateOrder(ctx context.Context, req *service.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, externalID string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
}

type OrderHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrderHandler(orders OrderService, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type CreateOrderRequestDTO struct {
	Name       string            `json:"name"`
	Phone      string            `json:"phone"`
	Email      string            `json:"email"`
	PickupDate time.Time         `json:"pickup_date"`
	LineItems  []domain.LineItem `json:"line_items"`
	Message    string            `json:"message,omitempty"`
}

type CreateOrderResponseDTO struct {
	OrderID     string `json:"order_id"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
	Status      string `json:"payment_status"`
}

// POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.CreateOrder(ctx, &service.CreateOrderRequest{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		PickupDate: req.PickupDate,
		LineItems:  req.LineItems,
		Message:    req.Message,
	})
	if err != nil {
		handleOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateOrderResponseDTO{
		OrderID:     order.ExternalID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		Status:      order.PaymentStatus.String(),
	})
}

// GET /api/orders (staff)
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		log.Printf("request %s: failed to list orders: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if orders == nil {
		orders = make([]*domain.Order, 0)
	}

	respondJSON(w, http.StatusOK, orders)
}

// GET /api/orders/{order_id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		log.Printf("request %s: failed to get order: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func handleOrderError(w http.ResponseWriter, err error) {
	var productErr *pricing.ProductError
	switch {
	case errors.As(err, &productErr):
		respondError(w, http.StatusBadRequest, "invalid_product", productErr.Error())
	case errors.Is(err, pricing.ErrInvalidProduct):
		respondError(w, http.StatusBadRequest, "invalid_product", err.Error())
	case errors.Is(err, service.ErrMissingField):
		respondError(w, http.StatusBadRequest, "missing_field", err.Error())
	case errors.Is(err, service.ErrEmptyOrder):
		respondError(w, http.StatusBadRequest, "empty_order", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
