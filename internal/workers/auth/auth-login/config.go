// internal/workers/auth/auth-login/config.go
package authlogin

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
