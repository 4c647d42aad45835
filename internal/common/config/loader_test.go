package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: mintslip-workers
  version: 1.2.0
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: mintslip
    user: mintslip
  elasticsearch:
    addresses: ["http://localhost:9200"]
  redis:
    address: localhost:6379
backend:
  base_url: https://api.example.test
server:
  jwt_secret: test-secret
workers:
  render-document:
    enabled: true
  generate-pdf:
    enabled: false
    timeout: 60000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "mintslip-workers", cfg.App.Name)
	assert.Equal(t, "document-generation", cfg.Camunda.ProcessID)
	assert.Equal(t, 3600000, cfg.Camunda.MessageTTL)
	assert.Equal(t, 0.1, cfg.Tracing.SampleRatio)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.GetURL())
	assert.Equal(t, "USD", cfg.Payments.Currency)
	assert.Equal(t, "sandbox", cfg.Payments.PayPal.Mode)
	assert.Equal(t, 500, cfg.Documents.PreviewDebounce)
	assert.Equal(t, "PREVIEW", cfg.Documents.WatermarkText)
	assert.Equal(t, "mintslip-documents", cfg.Search.DocumentsIndex)
	assert.InDelta(t, 9.99, cfg.Pricing.Prices["paystub"], 0.0001)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadFromFile_WorkerDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	render := GetWorkerConfig(cfg, "render-document")
	assert.True(t, render.Enabled)
	assert.Equal(t, 5, render.MaxJobsActive)
	assert.Equal(t, 30000, render.Timeout)
	assert.Equal(t, 3, render.MaxRetries)

	pdf := GetWorkerConfig(cfg, "generate-pdf")
	assert.False(t, pdf.Enabled)
	assert.Equal(t, 60000, pdf.Timeout)

	assert.True(t, IsWorkerEnabled(cfg, "not-configured"))
	assert.False(t, IsWorkerEnabled(cfg, "generate-pdf"))
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("MINTSLIP_TEST_STRIPE_KEY", "sk_test_123")
	content := baseYAML + `
payments:
  stripe:
    secret_key: ${MINTSLIP_TEST_STRIPE_KEY}
`
	cfg, err := LoadFromFile(writeConfig(t, content))
	require.NoError(t, err)
	assert.Equal(t, "sk_test_123", cfg.Payments.Stripe.SecretKey)
}

func TestLoadFromFile_EnvOverrideForEmptySecret(t *testing.T) {
	t.Setenv("PAYPAL_CLIENT_ID", "paypal-client")
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)
	assert.Equal(t, "paypal-client", cfg.Payments.PayPal.ClientID)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name: "missing broker",
			content: `
database:
  postgres: {host: localhost, database: db, user: u}
  elasticsearch: {url: "http://localhost:9200"}
  redis: {address: "localhost:6379"}
backend: {base_url: "http://backend"}
server: {jwt_secret: s}
`,
			errMsg: "camunda.broker_address is required",
		},
		{
			name: "missing backend",
			content: `
camunda: {broker_address: "localhost:26500"}
database:
  postgres: {host: localhost, database: db, user: u}
  elasticsearch: {url: "http://localhost:9200"}
  redis: {address: "localhost:6379"}
server: {jwt_secret: s}
`,
			errMsg: "backend.base_url is required",
		},
		{
			name:    "bad paypal mode",
			content: baseYAML + "\npayments:\n  paypal:\n    mode: production\n",
			errMsg:  "payments.paypal.mode",
		},
		{
			name:    "negative price",
			content: baseYAML + "\npricing:\n  prices:\n    paystub: -1\n",
			errMsg:  "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BACKEND_BASE_URL", "")
			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
