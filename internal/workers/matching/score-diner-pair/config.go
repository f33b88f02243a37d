// internal/workers/matching/score-diner-pair/config.go
package scoredinerpair

import (
	"time"

	"diner-matching/internal/common/config"
	"diner-matching/internal/matching"
)

type Config struct {
	Timeout time.Duration
	Weights matching.Weights
}

func LoadConfig(app *config.Config) *Config {
	cfg := &Config{
		Timeout: 5 * time.Second,
		Weights: matching.DefaultWeights(),
	}
	if app == nil {
		return cfg
	}
	if wc := config.GetWorkerConfig(app, TaskType); wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	cfg.Weights = app.Matching.Weights
	return cfg
}
