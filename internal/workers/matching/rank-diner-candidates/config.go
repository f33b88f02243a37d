// internal/workers/matching/rank-diner-candidates/config.go
package rankdinercandidates

import (
	"time"

	"diner-matching/internal/common/config"
	"diner-matching/internal/matching"
)

type Config struct {
	Timeout   time.Duration
	Weights   matching.Weights
	DefaultK  int
	MaxK      int
	PoolLimit int
}

func LoadConfig(app *config.Config) *Config {
	cfg := &Config{
		Timeout:   15 * time.Second,
		Weights:   matching.DefaultWeights(),
		DefaultK:  matching.DefaultTopK,
		MaxK:      50,
		PoolLimit: 500,
	}
	if app == nil {
		return cfg
	}
	if wc := config.GetWorkerConfig(app, TaskType); wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	cfg.Weights = app.Matching.Weights
	if app.Matching.DefaultK > 0 {
		cfg.DefaultK = app.Matching.DefaultK
	}
	if app.Matching.MaxK > 0 {
		cfg.MaxK = app.Matching.MaxK
	}
	if app.Matching.PoolLimit > 0 {
		cfg.PoolLimit = app.Matching.PoolLimit
	}
	return cfg
}

// EffectiveK resolves the requested k: missing means DefaultK, and values
// above MaxK are capped. Non-positive values pass through and yield no
// candidates.
func (c *Config) EffectiveK(requested *int) int {
	if requested == nil {
		return c.DefaultK
	}
	return min(*requested, c.MaxK)
}
