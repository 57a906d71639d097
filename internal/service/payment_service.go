package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/audit"
	"github.com/Karlivar21/Bakari-Backend/internal/domain"
	"github.com/Karlivar21/Bakari-Backend/internal/email"
	"github.com/Karlivar21/Bakari-Backend/internal/events"
	"github.com/Karlivar21/Bakari-Backend/internal/provider"
	"github.com/Karlivar21/Bakari-Backend/internal/repository"
	"github.com/google/uuid"
)

// CheckoutProvider creates hosted checkout sessions.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, req provider.CreateSessionRequest) (*provider.Session, error)
}

// WebhookVerifier checks the signature over the raw payload bytes.
type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

type CheckoutSessionResult struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type WebhookResult struct {
	Outcome string
	OrderID string
}

// PaymentService drives the payment state machine: session creation,
// webhook reconciliation and the expiry sweep. It holds no order state
// across requests; every operation re-reads the order before mutating, and
// conditional repository writes stand in for mutual exclusion.
type PaymentService struct {
	repo       repository.OrderRepository
	provider   CheckoutProvider
	email      email.Sender
	journal    audit.Journal
	events     *events.Publisher
	classifier Classifier
	verifier   WebhookVerifier // nil disables signature verification

	successURLTemplate string
	cancelURL          string
	orderTimeout       time.Duration
	now                func() time.Time
}

type PaymentServiceConfig struct {
	SuccessURLTemplate string // fmt template receiving the external order id
	CancelURL          string
	OrderTimeout       time.Duration
}

func NewPaymentService(
	repo repository.OrderRepository,
	checkout CheckoutProvider,
	sender email.Sender,
	journal audit.Journal,
	publisher *events.Publisher,
	classifier Classifier,
	verifier WebhookVerifier,
	cfg PaymentServiceConfig,
) *PaymentService {
	if cfg.OrderTimeout <= 0 {
		cfg.OrderTimeout = 30 * time.Minute
	}
	return &PaymentService{
		repo:               repo,
		provider:           checkout,
		email:              sender,
		journal:            journal,
		events:             publisher,
		classifier:         classifier,
		verifier:           verifier,
		successURLTemplate: cfg.SuccessURLTemplate,
		cancelURL:          cfg.CancelURL,
		orderTimeout:       cfg.OrderTimeout,
		now:                time.Now,
	}
}

// CreateCheckoutSession validates the order, obtains a session from the
// provider and persists the session id. On any provider failure the order is
// left untouched and pending, safe to retry.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, orderID string) (*CheckoutSessionResult, error) {
	order, err := s.repo.GetByExternalID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: total is %d", ErrInvalidAmount, order.TotalAmount)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotPayable, order.PaymentStatus)
	}

	session, err := s.provider.CreateSession(ctx, provider.CreateSessionRequest{
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
		Reference:      order.ExternalID,
		SuccessURL:     fmt.Sprintf(s.successURLTemplate, order.ExternalID),
		CancelURL:      s.cancelURL,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetCheckoutSession(ctx, order.ExternalID, provider.Name, session.ID); err != nil {
		return nil, err
	}

	return &CheckoutSessionResult{
		SessionID:   session.ID,
		RedirectURL: session.RedirectURL,
	}, nil
}

// HandleWebhook consumes one provider event delivery. Signature failures and
// internal faults return an error so the provider keeps retrying; everything
// else is acknowledged, including duplicates and events no order matches.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) (*WebhookResult, error) {
	if s.verifier != nil {
		if err := s.verifier.Verify(payload, headers); err != nil {
			return nil, err
		}
	}

	evt, err := parseWebhookEvent(payload)
	if err != nil {
		log.Printf("webhook: %v", err)
		s.record(ctx, &audit.PaymentEvent{Outcome: audit.OutcomeMalformed, Note: err.Error()})
		return &WebhookResult{Outcome: audit.OutcomeMalformed}, nil
	}

	outcome := s.classifier.Classify(evt.Type, evt.Status)
	if outcome == OutcomeIgnore {
		s.recordEvent(ctx, evt, audit.OutcomeIgnored, "", "")
		return &WebhookResult{Outcome: audit.OutcomeIgnored}, nil
	}

	order, err := s.resolveOrder(ctx, evt)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			log.Printf("webhook: no order for reference %q or session %q, acknowledging for manual reconciliation",
				evt.Reference, evt.SessionID)
			s.recordEvent(ctx, evt, audit.OutcomeUnresolved, "", "")
			return &WebhookResult{Outcome: audit.OutcomeUnresolved}, nil
		}
		return nil, err
	}

	// Terminal states never transition; duplicates are acknowledged no-ops.
	if order.PaymentStatus.IsTerminal() {
		if outcome == OutcomeSuccess && order.PaymentStatus == domain.PaymentStatusExpired {
			log.Printf("webhook: success event for expired order %s, flagging for manual review", order.ExternalID)
			s.recordEvent(ctx, evt, audit.OutcomeAnomaly, order.ExternalID,
				"success event arrived after order expiry")
			return &WebhookResult{Outcome: audit.OutcomeAnomaly, OrderID: order.ExternalID}, nil
		}
		// A crash after MarkPaid but before the email marker leaves a paid
		// order with no recorded send; redelivery retries just the email.
		if outcome == OutcomeSuccess && order.PaymentStatus == domain.PaymentStatusPaid && order.EmailSentAt == nil {
			s.sendConfirmation(ctx, order)
		}
		s.recordEvent(ctx, evt, audit.OutcomeDuplicate, order.ExternalID, "")
		return &WebhookResult{Outcome: audit.OutcomeDuplicate, OrderID: order.ExternalID}, nil
	}

	switch outcome {
	case OutcomeSuccess:
		return s.handleSuccess(ctx, evt, order)
	case OutcomeFailed:
		return s.handleTerminalEvent(ctx, evt, order, domain.PaymentStatusFailed, audit.OutcomeFailed)
	case OutcomeCancelled:
		return s.handleTerminalEvent(ctx, evt, order, domain.PaymentStatusCancelled, audit.OutcomeCancelled)
	default:
		s.recordEvent(ctx, evt, audit.OutcomeIgnored, order.ExternalID, "")
		return &WebhookResult{Outcome: audit.OutcomeIgnored, OrderID: order.ExternalID}, nil
	}
}

func (s *PaymentService) handleSuccess(ctx context.Context, evt *webhookEvent, order *domain.Order) (*WebhookResult, error) {
	if !domain.CanTransitionTo(order.PaymentStatus, domain.PaymentStatusPaid) {
		s.recordEvent(ctx, evt, audit.OutcomeDuplicate, order.ExternalID, "")
		return &WebhookResult{Outcome: audit.OutcomeDuplicate, OrderID: order.ExternalID}, nil
	}

	updated, err := s.repo.MarkPaid(ctx, order.ExternalID, evt.PaymentID, s.now())
	if err != nil {
		return nil, err
	}
	if !updated {
		// A racing delivery won; this one is a duplicate.
		s.recordEvent(ctx, evt, audit.OutcomeDuplicate, order.ExternalID, "lost conditional update race")
		return &WebhookResult{Outcome: audit.OutcomeDuplicate, OrderID: order.ExternalID}, nil
	}

	s.recordEvent(ctx, evt, audit.OutcomePaid, order.ExternalID, "")
	s.events.Publish(ctx, events.Event{
		Type:    events.TypeOrderPaid,
		OrderID: order.ExternalID,
		Amount:  order.TotalAmount,
	})

	// The paid status is persisted before the email marker, so a crash in
	// between costs at most a duplicate send attempt on redelivery.
	if order.EmailSentAt == nil {
		s.sendConfirmation(ctx, order)
	}

	return &WebhookResult{Outcome: audit.OutcomePaid, OrderID: order.ExternalID}, nil
}

func (s *PaymentService) sendConfirmation(ctx context.Context, order *domain.Order) {
	if err := s.email.SendConfirmation(ctx, order); err != nil {
		log.Printf("failed to send confirmation email for order %s: %v", order.ExternalID, err)
		return
	}
	if _, err := s.repo.MarkEmailSent(ctx, order.ExternalID, s.now()); err != nil {
		log.Printf("failed to mark email sent for order %s: %v", order.ExternalID, err)
	}
}

func (s *PaymentService) handleTerminalEvent(
	ctx context.Context,
	evt *webhookEvent,
	order *domain.Order,
	to domain.PaymentStatus,
	outcome string,
) (*WebhookResult, error) {
	if !domain.CanTransitionTo(order.PaymentStatus, to) {
		s.recordEvent(ctx, evt, audit.OutcomeDuplicate, order.ExternalID, "")
		return &WebhookResult{Outcome: audit.OutcomeDuplicate, OrderID: order.ExternalID}, nil
	}

	updated, err := s.repo.SetStatus(ctx, order.ExternalID, domain.PaymentStatusPending, to)
	if err != nil {
		return nil, err
	}
	if !updated {
		s.recordEvent(ctx, evt, audit.OutcomeDuplicate, order.ExternalID, "lost conditional update race")
		return &WebhookResult{Outcome: audit.OutcomeDuplicate, OrderID: order.ExternalID}, nil
	}

	s.recordEvent(ctx, evt, outcome, order.ExternalID, "")
	return &WebhookResult{Outcome: outcome, OrderID: order.ExternalID}, nil
}

// resolveOrder matches the event's merchant reference first, then falls back
// to the stored checkout session id.
func (s *PaymentService) resolveOrder(ctx context.Context, evt *webhookEvent) (*domain.Order, error) {
	if evt.Reference != "" {
		order, err := s.repo.GetByExternalID(ctx, evt.Reference)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
	}
	if evt.SessionID != "" {
		return s.repo.GetBySessionID(ctx, evt.SessionID)
	}
	return nil, repository.ErrOrderNotFound
}

// ExpireStaleOrders transitions pending orders older than the timeout to
// expired. No external calls, no email.
func (s *PaymentService) ExpireStaleOrders(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.orderTimeout)
	count, err := s.repo.ExpirePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("expired %d stale pending orders", count)
		s.events.Publish(ctx, events.Event{
			Type:  events.TypeOrdersExpired,
			Count: count,
		})
	}
	return count, nil
}

func (s *PaymentService) recordEvent(ctx context.Context, evt *webhookEvent, outcome, orderID, note string) {
	s.record(ctx, &audit.PaymentEvent{
		EventType: evt.Type,
		Outcome:   outcome,
		Reference: evt.Reference,
		SessionID: evt.SessionID,
		PaymentID: evt.PaymentID,
		OrderID:   orderID,
		Note:      note,
	})
}

// The journal is a reconciliation trail, not a transaction participant;
// failures are logged and never fail the delivery.
func (s *PaymentService) record(ctx context.Context, event *audit.PaymentEvent) {
	if s.journal == nil {
		return
	}
	event.ReceivedAt = s.now()
	if err := s.journal.Record(ctx, event); err != nil {
		log.Printf("failed to journal payment event: %v", err)
	}
}
