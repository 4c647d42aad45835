// internal/workers/resume/parse-resume/config.go
package parseresume

import (
	"time"

	"mintslip-workers/internal/common/config"
)

type Config struct {
	Timeout        time.Duration
	MaxUploadBytes int64
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:        config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		MaxUploadBytes: cfg.Documents.MaxUploadBytes,
	}
}
