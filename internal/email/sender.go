package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/domain"
)

// Sender delivers the order confirmation. Delivery is best-effort: callers
// log failures and never roll back payment state over them.
type Sender interface {
	SendConfirmation(ctx context.Context, order *domain.Order) error
}

// APISender posts to a transactional-mail HTTP API.
type APISender struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	from       string
}

func NewAPISender(endpoint, apiKey, from string) *APISender {
	return &APISender{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		apiKey:     apiKey,
		from:       from,
	}
}

func (s *APISender) SendConfirmation(ctx context.Context, order *domain.Order) error {
	payload := map[string]any{
		"from":    s.from,
		"to":      order.Email,
		"subject": fmt.Sprintf("Pöntun staðfest - %s", order.ExternalID),
		"text": fmt.Sprintf(
			"Takk fyrir pöntunina, %s!\n\nPöntunarnúmer: %s\nUpphæð: %d %s\nAfhending: %s\n",
			order.CustomerName,
			order.ExternalID,
			order.TotalAmount,
			order.Currency,
			order.PickupDate.Format("02.01.2006"),
		),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		detail, _ := io.ReadAll(res.Body)
		return fmt.Errorf("email API returned status %d: %s", res.StatusCode, detail)
	}
	return nil
}

// LogSender stands in when no mail API is configured.
type LogSender struct{}

func (LogSender) SendConfirmation(_ context.Context, order *domain.Order) error {
	log.Printf("email not configured, skipping confirmation for order %s (%s)", order.ExternalID, order.Email)
	return nil
}
