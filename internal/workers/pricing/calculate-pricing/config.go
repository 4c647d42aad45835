// internal/workers/pricing/calculate-pricing/config.go
package calculatepricing

import (
	"time"

	"mintslip-workers/internal/common/config"
)

type Config struct {
	Timeout     time.Duration
	ProductName string
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:     config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		ProductName: cfg.App.Name,
	}
}
