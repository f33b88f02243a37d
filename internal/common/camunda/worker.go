// internal/common/camunda/worker.go
package camunda

import (
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"diner-matching/internal/common/config"
	"diner-matching/internal/common/logger"
)

// HandlerFunc is the signature every matching worker's Handle method has.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// WorkerOpener opens job workers. zbc.Client satisfies it.
type WorkerOpener interface {
	NewJobWorker() worker.JobWorkerBuilderStep1
}

// Pool tracks opened job workers so they can be closed together.
type Pool struct {
	opener WorkerOpener
	logger logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewPool(opener WorkerOpener, log logger.Logger) *Pool {
	return &Pool{
		opener:  opener,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless the config disables it. It
// reports whether a worker was opened.
func (p *Pool) Start(taskType string, wcfg config.WorkerConfig, handler HandlerFunc) bool {
	if !wcfg.Enabled {
		p.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jw := p.opener.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Name(taskType).
		Open()

	p.mu.Lock()
	p.workers[taskType] = jw
	p.mu.Unlock()

	p.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// TaskTypes lists the started workers.
func (p *Pool) TaskTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.workers))
	for t := range p.workers {
		out = append(out, t)
	}
	return out
}

// Close stops every worker and waits for in-flight jobs.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for taskType, jw := range p.workers {
		jw.Close()
		jw.AwaitClose()
		p.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
	p.workers = make(map[string]worker.JobWorker)
}
