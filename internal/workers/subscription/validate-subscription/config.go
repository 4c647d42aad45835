// internal/workers/subscription/validate-subscription/config.go
package validatesubscription

import (
	"time"

	"mintslip-workers/internal/common/config"
)

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:  config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		CacheTTL: 5 * time.Minute,
	}
}
