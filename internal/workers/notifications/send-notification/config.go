// internal/workers/notifications/send-notification/config.go
package sendnotification

import (
	"time"

	"mintslip-workers/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	ProductName  string
	Timeout      time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		ProductName:  cfg.App.Name,
		Timeout:      config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
