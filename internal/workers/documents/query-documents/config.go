// internal/workers/documents/query-documents/config.go
package querydocuments

import (
	"time"

	"mintslip-workers/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxResults int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:    config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		MaxResults: cfg.Search.MaxResults,
	}
}
