// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// environment overlay is optional
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets that were left empty in YAML from well-known env vars.
func overrideEmptyConfig(cfg *Config) {
	overrides := []struct {
		target *string
		env    string
	}{
		{&cfg.Server.JWTSecret, "JWT_SECRET"},
		{&cfg.Backend.BaseURL, "BACKEND_BASE_URL"},
		{&cfg.Payments.Stripe.SecretKey, "STRIPE_SECRET_KEY"},
		{&cfg.Payments.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET"},
		{&cfg.Payments.PayPal.ClientID, "PAYPAL_CLIENT_ID"},
		{&cfg.Payments.PayPal.ClientSecret, "PAYPAL_CLIENT_SECRET"},
		{&cfg.Database.Postgres.User, "DB_USER"},
		{&cfg.Database.Postgres.Password, "DB_PASSWORD"},
		{&cfg.Database.Redis.Password, "REDIS_PASSWORD"},
	}

	for _, o := range overrides {
		if *o.target != "" {
			continue
		}
		if val := os.Getenv(o.env); val != "" {
			*o.target = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "mintslip-workers"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	if cfg.Camunda.MessageTTL == 0 {
		cfg.Camunda.MessageTTL = 3600000
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 0.1
	}
	if cfg.Camunda.ProcessID == "" {
		cfg.Camunda.ProcessID = "document-generation"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL != "" {
		cfg.Database.Elasticsearch.Addresses = []string{cfg.Database.Elasticsearch.URL}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Workers == nil {
		cfg.Workers = make(map[string]WorkerConfig)
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.TokenTTL == 0 {
		cfg.Server.TokenTTL = 24 * 60
	}
	if cfg.Server.RateLimit.RequestsPerSecond == 0 {
		cfg.Server.RateLimit.RequestsPerSecond = 20
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = 40
	}

	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 15000
	}
	if cfg.Backend.MaxRetries == 0 {
		cfg.Backend.MaxRetries = 2
	}
	if cfg.Backend.Breaker.MaxRequests == 0 {
		cfg.Backend.Breaker.MaxRequests = 1
	}
	if cfg.Backend.Breaker.Interval == 0 {
		cfg.Backend.Breaker.Interval = 60000
	}
	if cfg.Backend.Breaker.Timeout == 0 {
		cfg.Backend.Breaker.Timeout = 30000
	}
	if cfg.Backend.Breaker.FailureThreshold == 0 {
		cfg.Backend.Breaker.FailureThreshold = 5
	}

	if cfg.Payments.Currency == "" {
		cfg.Payments.Currency = "USD"
	}
	if cfg.Payments.IdempotencyTTL == 0 {
		cfg.Payments.IdempotencyTTL = 24 * 60
	}
	if cfg.Payments.PayPal.Mode == "" {
		cfg.Payments.PayPal.Mode = "sandbox"
	}

	if len(cfg.Pricing.Prices) == 0 {
		cfg.Pricing.Prices = map[string]float64{
			"paystub":        9.99,
			"w2":             14.99,
			"utility-bill":   9.99,
			"bank-statement": 14.99,
			"resume":         9.99,
		}
	}
	if cfg.Pricing.CouponCacheTTL == 0 {
		cfg.Pricing.CouponCacheTTL = 300
	}

	if cfg.Documents.WatermarkText == "" {
		cfg.Documents.WatermarkText = "PREVIEW"
	}
	if cfg.Documents.PreviewDebounce == 0 {
		cfg.Documents.PreviewDebounce = 500
	}
	if cfg.Documents.PreviewScale == 0 {
		cfg.Documents.PreviewScale = 1
	}
	if cfg.Documents.MaxUploadBytes == 0 {
		cfg.Documents.MaxUploadBytes = 5 << 20
	}
	if cfg.Documents.BatchConcurrency == 0 {
		cfg.Documents.BatchConcurrency = 4
	}
	if cfg.Documents.FormSessionTTL == 0 {
		cfg.Documents.FormSessionTTL = 60
	}

	if cfg.Search.DocumentsIndex == "" {
		cfg.Search.DocumentsIndex = "mintslip-documents"
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 20
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}

	if cfg.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}

	switch cfg.Payments.PayPal.Mode {
	case "sandbox", "live":
	default:
		return fmt.Errorf("payments.paypal.mode must be sandbox or live, got %q", cfg.Payments.PayPal.Mode)
	}

	for docType, price := range cfg.Pricing.Prices {
		if price < 0 {
			return fmt.Errorf("pricing.prices.%s must not be negative", docType)
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
