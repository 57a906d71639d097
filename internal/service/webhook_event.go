package service

import (
	"encoding/json"
	"fmt"
)

// webhookEvent is the pinned view of the provider's event envelope. Field
// names vary across provider versions, so each logical field is resolved
// from an ordered list of accepted names, checked in the nested data object
// first and the top level second.
type webhookEvent struct {
	Type      string
	Status    string
	Reference string
	SessionID string
	PaymentID string
}

var (
	eventTypeFields = []string{"type", "eventType", "event"}
	referenceFields = []string{"reference", "merchantReference", "merchant_reference"}
	sessionIDFields = []string{"sessionId", "session_id", "checkoutSessionId", "checkout_session_id"}
	paymentIDFields = []string{"id", "paymentId", "payment_id", "transactionId", "transaction_id"}
)

func parseWebhookEvent(raw []byte) (*webhookEvent, error) {
	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unparsable webhook payload: %w", err)
	}

	data, _ := envelope["data"].(map[string]any)

	evt := &webhookEvent{
		Type:      pickString(nil, envelope, eventTypeFields),
		Status:    pickString(data, envelope, []string{"status"}),
		Reference: pickString(data, envelope, referenceFields),
		SessionID: pickString(data, envelope, sessionIDFields),
		PaymentID: pickString(data, envelope, paymentIDFields),
	}
	if evt.Type == "" {
		return nil, fmt.Errorf("webhook payload has no event type")
	}
	return evt, nil
}

func pickString(primary, fallback map[string]any, names []string) string {
	for _, m := range []map[string]any{primary, fallback} {
		if m == nil {
			continue
		}
		for _, name := range names {
			if v, ok := m[name].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}
