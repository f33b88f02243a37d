// internal/common/database/health.go
package database

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pinger is any dependency with a liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckAll pings every dependency concurrently and returns "ok" or the error
// text per name, plus whether all succeeded. One failing dependency does not
// cancel the others.
func CheckAll(ctx context.Context, deps map[string]Pinger) (map[string]string, bool) {
	var (
		mu      sync.Mutex
		g       errgroup.Group
		results = make(map[string]string, len(deps))
	)

	for name, p := range deps {
		g.Go(func() error {
			status := "ok"
			err := p.Ping(ctx)
			if err != nil {
				status = err.Error()
			}
			mu.Lock()
			results[name] = status
			mu.Unlock()
			return err
		})
	}
	return results, g.Wait() == nil
}
