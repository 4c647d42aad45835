// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Server        ServerConfig            `mapstructure:"server"`
	Backend       BackendConfig           `mapstructure:"backend"`
	Payments      PaymentsConfig          `mapstructure:"payments"`
	Pricing       PricingConfig           `mapstructure:"pricing"`
	Documents     DocumentsConfig         `mapstructure:"documents"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Search        SearchConfig            `mapstructure:"search"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	MessageTTL     int    `mapstructure:"message_ttl"`     // milliseconds
	ProcessID      string `mapstructure:"process_id"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// TracingConfig points span export at an OTLP/HTTP collector. Spans are
// sampled but dropped when no endpoint is set.
type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// --- HTTP API ---

type ServerConfig struct {
	Address        string          `mapstructure:"address"`
	JWTSecret      string          `mapstructure:"jwt_secret"`
	TokenTTL       int             `mapstructure:"token_ttl"` // minutes
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// BackendConfig points at the remote user/subscription API.
type BackendConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    int           `mapstructure:"timeout"` // milliseconds
	MaxRetries int           `mapstructure:"max_retries"`
	Breaker    BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxRequests      uint32 `mapstructure:"max_requests"`
	Interval         int    `mapstructure:"interval"` // milliseconds
	Timeout          int    `mapstructure:"timeout"`  // milliseconds
	FailureThreshold uint32 `mapstructure:"failure_threshold"`
}

// --- Payments ---

type PaymentsConfig struct {
	Currency       string       `mapstructure:"currency"`
	IdempotencyTTL int          `mapstructure:"idempotency_ttl"` // minutes
	Stripe         StripeConfig `mapstructure:"stripe"`
	PayPal         PayPalConfig `mapstructure:"paypal"`
}

type StripeConfig struct {
	SecretKey        string `mapstructure:"secret_key"`
	WebhookSecret    string `mapstructure:"webhook_secret"`
	SuccessURL       string `mapstructure:"success_url"`
	CancelURL        string `mapstructure:"cancel_url"`
	VerifyViaBackend bool   `mapstructure:"verify_via_backend"`
}

type PayPalConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Mode         string `mapstructure:"mode"` // sandbox | live
	ReturnURL    string `mapstructure:"return_url"`
	CancelURL    string `mapstructure:"cancel_url"`
	BrandName    string `mapstructure:"brand_name"`
}

// PricingConfig holds the base price per document type.
type PricingConfig struct {
	Prices         map[string]float64 `mapstructure:"prices"`
	CouponCacheTTL int                `mapstructure:"coupon_cache_ttl"` // seconds
}

// DocumentsConfig holds rendering, preview and upload settings.
type DocumentsConfig struct {
	WatermarkText    string  `mapstructure:"watermark_text"`
	PreviewDebounce  int     `mapstructure:"preview_debounce"` // milliseconds
	PreviewScale     float64 `mapstructure:"preview_scale"`
	MaxUploadBytes   int64   `mapstructure:"max_upload_bytes"`
	BatchConcurrency int     `mapstructure:"batch_concurrency"`
	FormSessionTTL   int     `mapstructure:"form_session_ttl"` // minutes
	DownloadBaseURL  string  `mapstructure:"download_base_url"`
}

// NotificationConfig holds settings for the send-notification worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type SearchConfig struct {
	DocumentsIndex string `mapstructure:"documents_index"`
	MaxResults     int    `mapstructure:"max_results"`
}
