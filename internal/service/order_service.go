package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/domain"
	"github.com/Karlivar21/Bakari-Backend/internal/events"
	"github.com/Karlivar21/Bakari-Backend/internal/pricing"
	"github.com/Karlivar21/Bakari-Backend/internal/repository"
	"github.com/google/uuid"
)

type CreateOrderRequest struct {
	Name       string
	Phone      string
	Email      string
	PickupDate time.Time
	LineItems  []domain.LineItem
	Message    string
}

// OrderService creates and reads orders. The total is always recomputed
// server-side from the catalog; a client-submitted total is never trusted.
type OrderService struct {
	repo    repository.OrderRepository
	catalog *pricing.Catalog
	events  *events.Publisher
}

func NewOrderService(repo repository.OrderRepository, catalog *pricing.Catalog, publisher *events.Publisher) *OrderService {
	return &OrderService{repo: repo, catalog: catalog, events: publisher}
}

func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	if err := validateCustomer(req); err != nil {
		return nil, err
	}

	total, err := s.catalog.ComputeTotal(req.LineItems)
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, ErrEmptyOrder
	}

	order := &domain.Order{
		ExternalID:    uuid.NewString(),
		CustomerName:  req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		PickupDate:    req.PickupDate,
		LineItems:     req.LineItems,
		Message:       req.Message,
		TotalAmount:   total,
		Currency:      "ISK",
		PaymentStatus: domain.PaymentStatusPending,
	}

	if err := s.repo.Insert(ctx, order); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.Event{
		Type:    events.TypeOrderCreated,
		OrderID: order.ExternalID,
		Amount:  order.TotalAmount,
	})

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, externalID string) (*domain.Order, error) {
	return s.repo.GetByExternalID(ctx, externalID)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.List(ctx)
}

func validateCustomer(req *CreateOrderRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if req.Phone == "" {
		return fmt.Errorf("%w: phone", ErrMissingField)
	}
	if req.Email == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	if req.PickupDate.IsZero() {
		return fmt.Errorf("%w: pickup date", ErrMissingField)
	}
	return nil
}
