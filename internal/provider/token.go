package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cached tokens are reused until this close to expiry.
const tokenExpiryMargin = 60 * time.Second

// TokenSource owns the process-wide provider access token. Concurrent
// refreshes for an expiring token coalesce into one upstream exchange.
type TokenSource struct {
	httpClient   *http.Client
	oauthURL     string
	clientID     string
	clientSecret string
	scope        string

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	sfg singleflight.Group
	now func() time.Time
}

func NewTokenSource(oauthURL, clientID, clientSecret, scope string) *TokenSource {
	return &TokenSource{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		oauthURL:     oauthURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		now:          time.Now,
	}
}

// Token returns a valid access token, refreshing via client-credentials
// exchange when the cached one is within the expiry margin.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.token != "" && t.now().Before(t.expiresAt.Add(-tokenExpiryMargin)) {
		token := t.token
		t.mu.Unlock()
		return token, nil
	}
	t.mu.Unlock()

	v, err, _ := t.sfg.Do("token", func() (interface{}, error) {
		return t.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (t *TokenSource) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {t.clientID},
		"client_secret": {t.clientSecret},
		"scope":         {t.scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderAuth, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderAuth, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status=%d body=%s", ErrProviderAuth, res.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderAuth, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in response", ErrProviderAuth)
	}

	t.mu.Lock()
	t.token = payload.AccessToken
	t.expiresAt = t.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	t.mu.Unlock()

	return payload.AccessToken, nil
}
