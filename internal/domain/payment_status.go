package domain

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid ||
		s == PaymentStatusFailed ||
		s == PaymentStatusCancelled ||
		s == PaymentStatusExpired
}

// String representation (for logging)
func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether an order may move from one payment status
// to another. Every non-pending status is terminal.
func CanTransitionTo(from, to PaymentStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusExpired:
		return true
	}
	return false
}
