package audit

import (
	"context"
	"time"
)

// Outcome labels recorded per webhook delivery.
const (
	OutcomePaid       = "paid"
	OutcomeFailed     = "failed"
	OutcomeCancelled  = "cancelled"
	OutcomeDuplicate  = "duplicate"
	OutcomeIgnored    = "ignored"
	OutcomeUnresolved = "unresolved"
	OutcomeAnomaly    = "anomaly"
	OutcomeMalformed  = "malformed"
)

// PaymentEvent is one journaled webhook delivery. Unresolved references and
// post-expiry anomalies land here too, so manual reconciliation has a trail
// even when no order was touched.
type PaymentEvent struct {
	ID         int64
	EventType  string
	Outcome    string
	Reference  string
	SessionID  string
	PaymentID  string
	OrderID    string
	Note       string
	ReceivedAt time.Time
}

// Journal records payment events for operator reconciliation.
type Journal interface {
	Record(ctx context.Context, event *PaymentEvent) error
}
