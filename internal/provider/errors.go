package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderAuth means the client-credentials exchange failed; session
	// creation is aborted and the caller may retry.
	ErrProviderAuth = errors.New("failed to get provider access token")

	// ErrInvalidSignature means a webhook payload failed verification and
	// must not be processed.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// SessionError carries the provider's diagnostic detail when a
// checkout-session request is rejected or malformed.
type SessionError struct {
	Status int
	Body   string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("provider session request failed: status=%d body=%s", e.Status, e.Body)
}
