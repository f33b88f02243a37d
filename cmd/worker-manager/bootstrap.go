// cmd/worker-manager/bootstrap.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"diner-matching/internal/common/logger"
)

// backoff controls connectWithRetry. Tests shrink the delays.
type backoff struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

var defaultBackoff = backoff{Attempts: 10, Delay: 2 * time.Second, MaxDelay: 30 * time.Second}

// connectWithRetry runs connect until it succeeds, the attempts run out or
// ctx ends, using jittered exponential backoff.
func connectWithRetry(ctx context.Context, log logger.Logger, name string, b backoff, connect func(ctx context.Context) error) error {
	err := retry.Do(
		func() error { return connect(ctx) },
		retry.Context(ctx),
		retry.Attempts(b.Attempts),
		retry.Delay(b.Delay),
		retry.MaxDelay(b.MaxDelay),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn(name+" connection failed, retrying", map[string]interface{}{
				"attempt":     n + 1,
				"maxAttempts": b.Attempts,
				"error":       err.Error(),
			})
		}),
	)
	if err != nil {
		return fmt.Errorf("%s failed after %d attempts: %w", name, b.Attempts, err)
	}
	log.Info(name+" connected", nil)
	return nil
}
