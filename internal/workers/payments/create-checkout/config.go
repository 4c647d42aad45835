// internal/workers/payments/create-checkout/config.go
package createcheckout

import (
	"time"

	"mintslip-workers/internal/common/config"
)

type Config struct {
	Timeout         time.Duration
	DefaultCurrency string
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:         config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		DefaultCurrency: cfg.Payments.Currency,
	}
}
