package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Name recorded on orders paid through this client.
const Name = "teya"

// Redirect-URL and session-id field names vary across provider API
// versions; each logical field is tried in order.
var (
	redirectURLFields = []string{"checkoutUrl", "url", "redirectUrl", "checkout_url", "session_url"}
	sessionIDFields   = []string{"id", "sessionId", "session_id"}
)

type CreateSessionRequest struct {
	Amount         int64
	Currency       string
	Reference      string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

type Session struct {
	ID          string
	RedirectURL string
}

// Client creates hosted checkout sessions. Calls are time-boxed and run
// behind a circuit breaker so a misbehaving provider fails fast instead of
// tying up request handlers.
type Client struct {
	httpClient   *http.Client
	apiBase      string
	sessionsPath string
	storeID      string
	tokens       *TokenSource
	breaker      *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(apiBase, sessionsPath, storeID string, tokens *TokenSource) *Client {
	settings := gobreaker.Settings{
		Name:    "checkout-sessions",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Client{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		apiBase:      apiBase,
		sessionsPath: sessionsPath,
		storeID:      storeID,
		tokens:       tokens,
		breaker:      gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"transactionType": "PURCHASE",
		"reference":       req.Reference,
		"amount": map[string]any{
			"value":    req.Amount,
			"currency": req.Currency,
		},
		"successUrl": req.SuccessURL,
		"cancelUrl":  req.CancelURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session request: %w", err)
	}

	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		return c.postSession(ctx, token, req.IdempotencyKey, body)
	})
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(respBody, &fields); err != nil {
		return nil, &SessionError{Status: http.StatusOK, Body: string(respBody)}
	}

	session := &Session{
		ID:          firstStringField(fields, sessionIDFields),
		RedirectURL: firstStringField(fields, redirectURLFields),
	}
	if session.RedirectURL == "" {
		// Fail loudly rather than redirect the customer nowhere.
		return nil, &SessionError{Status: http.StatusOK, Body: "no redirect URL in session response: " + string(respBody)}
	}
	return session, nil
}

func (c *Client) postSession(ctx context.Context, token, idempotencyKey string, body []byte) ([]byte, error) {
	url := c.apiBase + c.sessionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if c.storeID != "" {
		req.Header.Set("X-Store-Id", c.storeID)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SessionError{Status: 0, Body: err.Error()}
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &SessionError{Status: res.StatusCode, Body: err.Error()}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &SessionError{Status: res.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func firstStringField(fields map[string]any, names []string) string {
	for _, name := range names {
		if v, ok := fields[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
