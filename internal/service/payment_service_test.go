package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/audit"
	"github.com/Karlivar21/Bakari-Backend/internal/domain"
	"github.com/Karlivar21/Bakari-Backend/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	repo     *MockOrderRepository
	checkout *MockCheckoutProvider
	email    *MockEmailSender
	journal  *MockJournal
	verifier *MockVerifier
	svc      *PaymentService
}

func newPaymentFixture(t *testing.T, verify bool) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		repo: NewMockOrderRepository(),
		checkout: &MockCheckoutProvider{
			Session: &provider.Session{ID: "sess-1", RedirectURL: "https://pay.example/s/1"},
		},
		email:   &MockEmailSender{},
		journal: &MockJournal{},
	}

	var verifier WebhookVerifier
	if verify {
		f.verifier = &MockVerifier{}
		verifier = f.verifier
	}

	f.svc = NewPaymentService(
		f.repo, f.checkout, f.email, f.journal, nil,
		DefaultClassifier(), verifier,
		PaymentServiceConfig{
			SuccessURLTemplate: "https://kallabakari.is/order/success?orderId=%s",
			CancelURL:          "https://kallabakari.is/cart",
			OrderTimeout:       30 * time.Minute,
		},
	)
	return f
}

func pendingOrder(id string) *domain.Order {
	return &domain.Order{
		ExternalID:    id,
		CustomerName:  "Jón",
		Email:         "jon@example.is",
		TotalAmount:   1780,
		Currency:      "ISK",
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     time.Now(),
	}
}

func successWebhook(reference string) []byte {
	return []byte(fmt.Sprintf(
		`{"type":"payment.succeeded","data":{"reference":"%s","id":"pay-99","sessionId":"sess-1"}}`,
		reference,
	))
}

func TestCreateCheckoutSession_Success(t *testing.T) {
	f := newPaymentFixture(t, false)
	f.repo.Put(pendingOrder("ord-1"))

	res, err := f.svc.CreateCheckoutSession(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", res.SessionID)
	assert.Equal(t, "https://pay.example/s/1", res.RedirectURL)

	stored := f.repo.Current("ord-1")
	assert.Equal(t, "sess-1", stored.CheckoutSessionID)
	assert.Equal(t, "teya", stored.PaymentProvider)
	assert.Equal(t, domain.PaymentStatusPending, stored.PaymentStatus)

	require.Len(t, f.checkout.Requests, 1)
	req := f.checkout.Requests[0]
	assert.Equal(t, int64(1780), req.Amount)
	assert.Equal(t, "ISK", req.Currency)
	assert.Equal(t, "ord-1", req.Reference)
	assert.Equal(t, "https://kallabakari.is/order/success?orderId=ord-1", req.SuccessURL)
	assert.NotEmpty(t, req.IdempotencyKey)
}

func TestCreateCheckoutSession_UniqueIdempotencyKeys(t *testing.T) {
	f := newPaymentFixture(t, false)
	f.repo.Put(pendingOrder("ord-1"))

	_, err := f.svc.CreateCheckoutSession(context.Background(), "ord-1")
	require.NoError(t, err)
	_, err = f.svc.CreateCheckoutSession(context.Background(), "ord-1")
	require.NoError(t, err)

	require.Len(t, f.checkout.Requests, 2)
	assert.NotEqual(t, f.checkout.Requests[0].IdempotencyKey, f.checkout.Requests[1].IdempotencyKey)
}

func TestCreateCheckoutSession_OrderNotFound(t *testing.T) {
	f := newPaymentFixture(t, false)

	_, err := f.svc.CreateCheckoutSession(context.Background(), "missing")
	assert.Error(t, err)
	assert.Empty(t, f.checkout.Requests)
}

func TestCreateCheckoutSession_InvalidAmount(t *testing.T) {
	f := newPaymentFixture(t, false)
	order := pendingOrder("ord-1")
	order.TotalAmount = 0
	f.repo.Put(order)

	_, err := f.svc.CreateCheckoutSession(context.Background(), "ord-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, f.checkout.Requests)
}

func TestCreateCheckoutSession_ProviderFailureLeavesOrderUntouched(t *testing.T) {
	f := newPaymentFixture(t, false)
	f.repo.Put(pendingOrder("ord-1"))
	f.checkout.Err = &provider.SessionError{Status: 502, Body: "bad gateway"}

	_, err := f.svc.CreateCheckoutSession(context.Background(), "ord-1")
	require.Error(t, err)

	var serr *provider.SessionError
	assert.ErrorAs(t, err, &serr)

	stored := f.repo.Current("ord-1")
	assert.Empty(t, stored.CheckoutSessionID)
	assert.Equal(t, domain.PaymentStatusPending, stored.PaymentStatus)
}

func TestHandleWebhook_SuccessMarksPaidAndEmailsOnce(t *testing.T) {
	f := newPaymentFixture(t, false)
	f.repo.Put(pendingOrder("ord-1"))

	res, err := f.svc.HandleWebhook(context.Background(), successWebhook("ord-1"), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, audit.OutcomePaid, res.Outcome)

	stored := f.repo.Current("ord-1")
	assert.Equal(t, domain.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, "pay-99", stored.PaymentID)
	require.NotNil(t, stored.PaidAt)
	require.NotNil(t, stored.EmailSentAt)
	assert.Equal(t, 1, f.email.SentCount())
}

func TestHandleWebhook_DuplicateSuccessIsNoOp(t *testing.T) {
	f := newPaymentFixture(t, false)
	f.repo.Put(pendingOrder("ord-1"))

	payload := successWebhook("ord-1")
	_, err := f.svc.HandleWebhook(context.Background(), payload, http.Header{})
	require.NoError(t, err)

	res, err := f.svc.HandleWebhook(context.Background(), payload, http.Header{})
	require.NoError(t, err)
	assert.Equal(t, audit.OutcomeDuplicate, res.Outcome)

	assert.Equal(t, domain.PaymentStatusPaid, f.repo.Current("ord-1").PaymentStatus)
	assert.Equal(t, 1, f.email.SentCount(), "exactly one email across both deliveries")
}

func TestHandleWebhook_RedeliveryRetriesEmailAfterCrash(t *testing.T) {
	f := newPaymentFixture(t, false)
	order := pendingOrder("ord-1")
	order.PaymentStatus = domain.PaymentStatusPaid // paid but marker never written
	f.repo.Put(order)

	res, err := f.svc.HandleWebhook(context.Background(), successWebhook("ord-1"), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, audit.OutcomeDuplicate, res.Outcome)

	assert.Equal(t, 1, f.email.SentCount())
	assert.NotNil(t, f.repo.Current("ord-1").EmailSentAt)
}

func TestHandleWebhook_FailureAndCancelEvents(t *testing.T) {
	tests := []struct {
		eventType string
		status    domain.PaymentStatus
		outcome   string
	}{
		{"payment.failed", domain.PaymentStatusFailed, audit.OutcomeFailed},
		{"payment.cancelled", domain.PaymentStatusCancelled, audit.OutcomeCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			f := newPaymentFixture(t, false)
			f.repo.Put(pendingOrder("ord-1"))

			payload := []byte(fmt.Sprintf(`{"type":"%s","data":{"reference":"ord-1"}}`, tt.eventType))
			res, err := f.svc.HandleWebhook(context.Background(), payload, http.Header{})
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.status, f.repo.Current("ord-1").PaymentStatus)
			assert.Equal(t, 0, f.email.SentCount())
		})
	}
}

func TestHandleWebhook_UnknownEventTypeIgnored(t *testing.T) {
	f := newPaymentFixture(t, false)
	f.repo.Put(pendingOrder("ord-1"))

	payload := []byte(`{"type":"payout.settled","data":{"reference":"ord-1"}}`)
	res, err := f.svc.HandleWebhook(context.Background(), payload, http.Header{})
	require.NoError(t, err)
	assert.Equal(t, audit.OutcomeIgnored, res.Outcome)
	assert.Equal(t, domain.PaymentStatusPending, f.repo.Current("ord-1").PaymentStatus)
}

func TestHandleWebhook_ResolvesBySessionIDFallback(t *testing.T) {
	f := newPaymentFixture(t, false)
	order := pendingOrder("ord-1")
	order.CheckoutSessionID = "sess-1"
	f.repo.Put(order)

	// Reference matches nothing; session id does.
	payload := []byte(`{"type":"payment.succeeded","data":{"reference":"unknown-ref","sessionId":"sess-1","id":"pay-7"}}`)
	res, err := f.svc.HandleWebhook(context.Background(), payload, http.Header{})
	require.NoError(t, err)
	assert.Equal(t, audit.OutcomePaid, res.Outcome)
	assert.Equal(t, "ord-1", res.OrderID)
}

func TestHandleWebhook_UnresolvedReferenceAcknowledged(t *testing.T) {
	f := newPaymentFixture(t, false)

	payload := []byte(`{"type":"payment.succeeded","data":{"reference":"ghost","sessionId":"ghost-sess"}}`)
	res, err := f.svc.HandleWebhook(context.Background(), payload, http.Header{})
	require.NoError(t, err, "unresolved reference must be acknowledged, not errored")
	assert.Equal(t, audit.OutcomeUnresolved, res.Outcome)
	assert.Contains(t, f.journal.Outcomes(), audit.OutcomeUnresolved)
	assert.Equal(t, 0, f.email.SentCount())
}

func TestHandleWebhook_SuccessAfterExpiryIsAnomaly(t *testing.T) {
	f := newPaymentFixture(t, false)
	order := pendingOrder("ord-1")
	order.PaymentStatus = domain.PaymentStatusExpired
	f.repo.Put(order)

	res, err := f.svc.HandleWebhook(context.Background(), successWebhook("ord-1"), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, audit.OutcomeAnomaly, res.Outcome)

	assert.Equal(t, domain.PaymentStatusExpired, f.repo.Current("ord-1").PaymentStatus,
		"late success must not override expiry")
	assert.Equal(t, 0, f.email.SentCount())
}

func TestHandleWebhook_TerminalStatesNeverTransition(t *testing.T) {
	terminal := []domain.PaymentStatus{
		domain.PaymentStatusFailed,
		domain.PaymentStatusCancelled,
		domain.PaymentStatusExpired,
	}

	for _, status := range terminal {
		t.Run(status.String(), func(t *testing.T) {
			f := newPaymentFixture(t, false)
			order := pendingOrder("ord-1")
			order.PaymentStatus = status
			f.repo.Put(order)

			for _, eventType := range []string{"payment.succeeded", "payment.failed", "payment.cancelled"} {
				payload := []byte(fmt.Sprintf(`{"type":"%s","data":{"reference":"ord-1"}}`, eventType))
				_, err := f.svc.HandleWebhook(context.Background(), payload, http.Header{})
				require.NoError(t, err)
			}

			assert.Equal(t, status, f.repo.Current("ord-1").PaymentStatus)
		})
	}
}

func TestHandleWebhook_SignatureCheckedBeforeLookup(t *testing.T) {
	f := newPaymentFixture(t, true)
	f.repo.Put(pendingOrder("ord-1"))
	f.verifier.Err = provider.ErrInvalidSignature
	f.repo.GetErr = errors.New("lookup must not happen")

	_, err := f.svc.HandleWebhook(context.Background(), successWebhook("ord-1"), http.Header{})
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrInvalidSignature)
	assert.Equal(t, 1, f.verifier.Called)
	assert.Equal(t, domain.PaymentStatusPending, f.repo.Current("ord-1").PaymentStatus)
}

func TestHandleWebhook_MalformedPayloadAcknowledged(t *testing.T) {
	f := newPaymentFixture(t, false)

	res, err := f.svc.HandleWebhook(context.Background(), []byte("{broken"), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, audit.OutcomeMalformed, res.Outcome)

	res, err = f.svc.HandleWebhook(context.Background(), []byte(`{"data":{"reference":"x"}}`), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, audit.OutcomeMalformed, res.Outcome)
}

func TestHandleWebhook_RepositoryFaultPropagates(t *testing.T) {
	f := newPaymentFixture(t, false)
	f.repo.GetErr = errors.New("db down")

	_, err := f.svc.HandleWebhook(context.Background(), successWebhook("ord-1"), http.Header{})
	assert.Error(t, err, "internal faults must surface so the provider retries")
}

func TestExpireStaleOrders(t *testing.T) {
	f := newPaymentFixture(t, false)

	stale := pendingOrder("ord-old")
	stale.CreatedAt = time.Now().Add(-31 * time.Minute)
	f.repo.Put(stale)

	fresh := pendingOrder("ord-new")
	fresh.CreatedAt = time.Now().Add(-10 * time.Minute)
	f.repo.Put(fresh)

	paid := pendingOrder("ord-paid")
	paid.PaymentStatus = domain.PaymentStatusPaid
	paid.CreatedAt = time.Now().Add(-2 * time.Hour)
	f.repo.Put(paid)

	count, err := f.svc.ExpireStaleOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.Equal(t, domain.PaymentStatusExpired, f.repo.Current("ord-old").PaymentStatus)
	assert.Equal(t, domain.PaymentStatusPending, f.repo.Current("ord-new").PaymentStatus)
	assert.Equal(t, domain.PaymentStatusPaid, f.repo.Current("ord-paid").PaymentStatus)
}

func TestSweepThenLateWebhook_EndsExpired(t *testing.T) {
	f := newPaymentFixture(t, false)

	order := pendingOrder("ord-1")
	order.CreatedAt = time.Now().Add(-time.Hour)
	f.repo.Put(order)

	_, err := f.svc.ExpireStaleOrders(context.Background())
	require.NoError(t, err)

	res, err := f.svc.HandleWebhook(context.Background(), successWebhook("ord-1"), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, audit.OutcomeAnomaly, res.Outcome)
	assert.Equal(t, domain.PaymentStatusExpired, f.repo.Current("ord-1").PaymentStatus)
}
