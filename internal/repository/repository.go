package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/domain"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrSoupPlanNotFound = errors.New("soup plan not found")
)

// OrderRepository defines the interface for order data operations.
// Consumers define this interface, not the MongoDB implementation.
//
// The conditional mutators (MarkPaid, SetStatus, MarkEmailSent) report
// whether the write actually happened: a false result means another request
// already moved the order past the expected state, which is how racing
// webhook deliveries stay idempotent without an in-process lock.
type OrderRepository interface {
	Insert(ctx context.Context, order *domain.Order) error
	GetByExternalID(ctx context.Context, externalID string) (*domain.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	SetCheckoutSession(ctx context.Context, externalID, provider, sessionID string) error
	MarkPaid(ctx context.Context, externalID, paymentID string, paidAt time.Time) (bool, error)
	SetStatus(ctx context.Context, externalID string, from, to domain.PaymentStatus) (bool, error)
	MarkEmailSent(ctx context.Context, externalID string, at time.Time) (bool, error)
	ExpirePending(ctx context.Context, olderThan time.Time) (int64, error)
}

// CommentRepository stores customer feedback.
type CommentRepository interface {
	Insert(ctx context.Context, comment *domain.Comment) error
	List(ctx context.Context) ([]*domain.Comment, error)
}

// SoupPlanRepository stores the single current weekly soup plan.
type SoupPlanRepository interface {
	Get(ctx context.Context) (*domain.SoupPlan, error)
	Replace(ctx context.Context, plan *domain.SoupPlan) error
}
