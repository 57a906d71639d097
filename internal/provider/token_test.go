package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, calls *atomic.Int64, expiresIn int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		assert.Equal(t, "client-123", r.FormValue("client_id"))
		assert.Equal(t, "secret-456", r.FormValue("client_secret"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-abc",
			"expires_in":   expiresIn,
		})
	}))
}

func TestToken_CachedUntilExpiryMargin(t *testing.T) {
	var calls atomic.Int64
	srv := newTokenServer(t, &calls, 3600)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "client-123", "secret-456", "checkout/sessions/create")

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", tok)

	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", tok)

	assert.Equal(t, int64(1), calls.Load(), "second call must reuse the cached token")
}

func TestToken_RefreshesWithinMargin(t *testing.T) {
	var calls atomic.Int64
	srv := newTokenServer(t, &calls, 3600)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "client-123", "secret-456", "scope")

	now := time.Now()
	ts.now = func() time.Time { return now }

	_, err := ts.Token(context.Background())
	require.NoError(t, err)

	// Jump to 30s before expiry: inside the 60s safety margin.
	ts.now = func() time.Time { return now.Add(3600*time.Second - 30*time.Second) }

	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load(), "token inside the expiry margin must be refreshed")
}

func TestToken_ConcurrentRefreshCoalesces(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond) // hold refreshers in flight
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-abc", "expires_in": 3600})
	}))
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "id", "secret", "scope")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := ts.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok-abc", tok)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "concurrent refreshes must coalesce into one exchange")
}

func TestToken_ExchangeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "id", "wrong", "scope")

	_, err := ts.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderAuth)
}
