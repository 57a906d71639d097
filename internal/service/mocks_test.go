package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/audit"
	"github.com/Karlivar21/Bakari-Backend/internal/domain"
	"github.com/Karlivar21/Bakari-Backend/internal/provider"
	"github.com/Karlivar21/Bakari-Backend/internal/repository"
)

// MockOrderRepository implements repository.OrderRepository in memory with
// the same conditional-update semantics as the Mongo implementation.
type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	InsertErr error
	GetErr    error
	UpdateErr error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[string]*domain.Order)}
}

func (m *MockOrderRepository) Put(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ExternalID] = order
}

func (m *MockOrderRepository) Insert(_ context.Context, order *domain.Order) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	m.Put(order)
	return nil
}

func (m *MockOrderRepository) GetByExternalID(_ context.Context, externalID string) (*domain.Order, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[externalID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) GetBySessionID(_ context.Context, sessionID string) (*domain.Order, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.CheckoutSessionID == sessionID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *MockOrderRepository) List(_ context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*domain.Order
	for _, order := range m.orders {
		copied := *order
		orders = append(orders, &copied)
	}
	return orders, nil
}

func (m *MockOrderRepository) SetCheckoutSession(_ context.Context, externalID, providerName, sessionID string) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[externalID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.PaymentProvider = providerName
	order.CheckoutSessionID = sessionID
	return nil
}

func (m *MockOrderRepository) MarkPaid(_ context.Context, externalID, paymentID string, paidAt time.Time) (bool, error) {
	if m.UpdateErr != nil {
		return false, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[externalID]
	if !ok || order.PaymentStatus != domain.PaymentStatusPending {
		return false, nil
	}
	order.PaymentStatus = domain.PaymentStatusPaid
	order.PaymentID = paymentID
	order.PaidAt = &paidAt
	return true, nil
}

func (m *MockOrderRepository) SetStatus(_ context.Context, externalID string, from, to domain.PaymentStatus) (bool, error) {
	if m.UpdateErr != nil {
		return false, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[externalID]
	if !ok || order.PaymentStatus != from {
		return false, nil
	}
	order.PaymentStatus = to
	return true, nil
}

func (m *MockOrderRepository) MarkEmailSent(_ context.Context, externalID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[externalID]
	if !ok || order.EmailSentAt != nil {
		return false, nil
	}
	order.EmailSentAt = &at
	return true, nil
}

func (m *MockOrderRepository) ExpirePending(_ context.Context, olderThan time.Time) (int64, error) {
	if m.UpdateErr != nil {
		return 0, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, order := range m.orders {
		if order.PaymentStatus == domain.PaymentStatusPending && order.CreatedAt.Before(olderThan) {
			order.PaymentStatus = domain.PaymentStatusExpired
			count++
		}
	}
	return count, nil
}

// Current returns the stored order without the copy the getters make.
func (m *MockOrderRepository) Current(externalID string) *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[externalID]
}

// MockCheckoutProvider implements CheckoutProvider
type MockCheckoutProvider struct {
	Session  *provider.Session
	Err      error
	Requests []provider.CreateSessionRequest
}

func (m *MockCheckoutProvider) CreateSession(_ context.Context, req provider.CreateSessionRequest) (*provider.Session, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Session, nil
}

// MockEmailSender counts deliveries
type MockEmailSender struct {
	mu   sync.Mutex
	Sent []string
	Err  error
}

func (m *MockEmailSender) SendConfirmation(_ context.Context, order *domain.Order) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, order.ExternalID)
	return nil
}

func (m *MockEmailSender) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockJournal captures audit records
type MockJournal struct {
	mu     sync.Mutex
	Events []*audit.PaymentEvent
	Err    error
}

func (m *MockJournal) Record(_ context.Context, event *audit.PaymentEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockJournal) Outcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var outcomes []string
	for _, e := range m.Events {
		outcomes = append(outcomes, e.Outcome)
	}
	return outcomes
}

// MockVerifier implements WebhookVerifier
type MockVerifier struct {
	Err    error
	Called int
}

func (m *MockVerifier) Verify(_ []byte, _ http.Header) error {
	m.Called++
	return m.Err
}
