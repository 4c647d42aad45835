// internal/workers/auth/refresh-user/config.go
package refreshuser

import (
	"time"

	"mintslip-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
