// internal/workers/documents/generate-pdf/config.go
package generatepdf

import (
	"strings"
	"time"

	"mintslip-workers/internal/common/config"
)

type Config struct {
	Timeout          time.Duration
	BatchConcurrency int
	DownloadBaseURL  string
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:          config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		BatchConcurrency: cfg.Documents.BatchConcurrency,
		DownloadBaseURL:  strings.TrimRight(cfg.Documents.DownloadBaseURL, "/"),
	}
}
