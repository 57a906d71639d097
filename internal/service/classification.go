package service

// Outcome is what a webhook event means for the order, independent of the
// provider's vocabulary.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeIgnore    Outcome = "ignore"
)

// Classifier maps provider event tokens to outcomes by exact string match.
// New provider vocabulary is a data change here, not a code change. Tokens
// not in the table classify as ignore, so unknown event types are never
// silently treated as successes or failures.
type Classifier map[string]Outcome

func (c Classifier) Classify(tokens ...string) Outcome {
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if outcome, ok := c[token]; ok {
			return outcome
		}
	}
	return OutcomeIgnore
}

// DefaultClassifier covers the event-name variants the provider has been
// observed to send.
func DefaultClassifier() Classifier {
	return Classifier{
		"payment.succeeded":         OutcomeSuccess,
		"PAYMENT_SUCCEEDED":         OutcomeSuccess,
		"Payment Succeeded":         OutcomeSuccess,
		"checkout.session.paid":     OutcomeSuccess,
		"payment.failed":            OutcomeFailed,
		"PAYMENT_FAILED":            OutcomeFailed,
		"Payment Failed":            OutcomeFailed,
		"payment.cancelled":         OutcomeCancelled,
		"PAYMENT_CANCELLED":         OutcomeCancelled,
		"checkout.session.expired":  OutcomeIgnore,
		"checkout.session.rejected": OutcomeFailed,
	}
}
