// internal/workers/matching/notify-daily-match/config.go
package notifydailymatch

import (
	"time"

	"diner-matching/internal/common/config"
	"diner-matching/internal/matching"
)

type Config struct {
	Timeout      time.Duration
	Weights      matching.Weights
	EmailEnabled bool
	SMSEnabled   bool
}

func LoadConfig(app *config.Config) *Config {
	cfg := &Config{
		Timeout:      30 * time.Second,
		Weights:      matching.DefaultWeights(),
		EmailEnabled: true,
	}
	if app == nil {
		return cfg
	}
	if wc := config.GetWorkerConfig(app, TaskType); wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	cfg.Weights = app.Matching.Weights
	cfg.EmailEnabled = app.Notifications.Email.Enabled
	cfg.SMSEnabled = app.Notifications.SMS.Enabled
	return cfg
}
