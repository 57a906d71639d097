package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
mongo:
  uri: mongodb://localhost:27017
payment:
  api_base: https://api.teya.test
  oauth_url: https://oauth.teya.test/token
  client_id: cid
  client_secret: secret
  success_url_template: https://kallabakari.is/order/success?orderId=%s
  cancel_url: https://kallabakari.is/cart
auth:
  jwt_secret: test-secret
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout.Std())
	assert.Equal(t, "bakari", cfg.Mongo.Database)
	assert.Equal(t, 30*time.Minute, cfg.Payment.OrderTimeout.Std())
	assert.Equal(t, 5*time.Minute, cfg.Payment.SweepInterval.Std())
}

func TestLoad_ParsesDurations(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
http:
  request_timeout: 15s
`))
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.HTTP.RequestTimeout.Std())
}

func TestLoad_EnvOverridesSecret(t *testing.T) {
	t.Setenv("TEYA_CLIENT_SECRET", "env-secret")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Payment.ClientSecret)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	_, err := Load(writeConfig(t, "mongo:\n  uri: mongodb://localhost\n"))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
