// internal/workers/matching/rank-diner-candidates/handler.go
package rankdinercandidates

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"diner-matching/internal/common/errors"
	"diner-matching/internal/common/logger"
	"diner-matching/internal/common/metrics"
	"diner-matching/internal/common/observability"
	"diner-matching/internal/common/validation"
	"diner-matching/internal/matching"
	"diner-matching/internal/models"
	"diner-matching/internal/store"
	"diner-matching/internal/workers/matching/profiles"
)

const TaskType = "rank-diner-candidates"

type Handler struct {
	config       *Config
	scorer       *matching.Scorer
	profiles     store.ProfileStore
	search       store.CandidateSource
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

type HandlerOptions struct {
	Config *Config
	// Profiles resolves seekers by ID and backs city lookups when Search is
	// nil or failing.
	Profiles store.ProfileStore
	Search   store.CandidateSource
	Obs      *observability.Observability
	Logger   logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	if opts.Config == nil {
		opts.Config = LoadConfig(nil)
	}
	log := opts.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       opts.Config,
		scorer:       matching.NewScorer(opts.Config.Weights),
		profiles:     opts.Profiles,
		search:       opts.Search,
		obs:          opts.Obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int64("job.key", job.GetKey()))
	defer span.End()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := ParseInput(job.GetVariables())
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			span.SetAttributes(
				attribute.Int("pool.size", output.PoolSize),
				attribute.Int("candidates", len(output.Candidates)),
			)
			h.completeJob(client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			h.obs.RecordJobProcessed(ctx, TaskType, "completed")
			h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "completed")
			return
		}
	}

	span.SetStatus(codes.Error, err.Error())
	bpmnErr := h.errorHandler.HandleJobError(context.Background(), client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "failed")
}

func ParseInput(variables string) (*Input, error) {
	result, err := validation.ValidateJSON(validation.SchemaRankDinerCandidates, []byte(variables))
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

// Execute resolves the seeker and the candidate pool, then ranks. When the
// pool does not depend on the seeker (an explicit pool or city) both loads
// run concurrently.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}

	var (
		seeker *models.DinerProfile
		pool   []models.DinerProfile
		source string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		seeker, err = profiles.Resolve(gctx, h.profiles, input.Diner, input.DinerID)
		return err
	})
	switch {
	case input.Pool != nil:
		g.Go(func() error {
			pool, source = input.Pool, SourceInput
			return profiles.ValidateAll(input.Pool)
		})
	case matching.City(input.City) != "":
		g.Go(func() error {
			var err error
			pool, source, err = h.loadPool(gctx, matching.City(input.City))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if source == "" {
		city := matching.City(seeker.Location)
		if city == "" {
			h.logger.Info("seeker has no city, nothing to rank", map[string]interface{}{"dinerId": seeker.ID})
			pool = []models.DinerProfile{}
		} else {
			var err error
			if pool, source, err = h.loadPool(ctx, city); err != nil {
				return nil, err
			}
		}
	}
	metrics.CandidatePoolSize.WithLabelValues(sourceLabel(source)).Observe(float64(len(pool)))

	k := h.config.EffectiveK(input.K)
	candidates := h.scorer.RankCandidates(seeker, pool, k)
	output := &Output{
		DinerID:    seeker.ID,
		K:          k,
		PoolSize:   len(pool),
		PoolSource: source,
		Candidates: candidates,
		Reasons:    []matching.MatchReason{},
	}

	if len(candidates) == 0 {
		info := errors.NewEmptyCandidatePoolError(seeker.ID)
		h.logger.Info("no candidates ranked", map[string]interface{}{
			"dinerId":   seeker.ID,
			"code":      string(info.Code),
			"poolSize":  len(pool),
			"requested": k,
		})
		return output, nil
	}

	best := candidates[0]
	output.BestMatch = &best
	output.Reasons = matching.Explain(seeker, &best.Diner, best.PUV, best.PVU)
	for _, c := range candidates {
		metrics.ReciprocalScore.WithLabelValues(TaskType).Observe(c.Recip)
	}

	h.logger.Info("candidates ranked", map[string]interface{}{
		"dinerId":   seeker.ID,
		"poolSize":  len(pool),
		"returned":  len(candidates),
		"bestMatch": best.Diner.ID,
		"bestRecip": best.Recip,
	})
	return output, nil
}

// loadPool searches the index for city, falling back to the profile store
// when the index is unavailable.
func (h *Handler) loadPool(ctx context.Context, city string) ([]models.DinerProfile, string, error) {
	if h.search != nil {
		pool, err := h.search.ListByCity(ctx, city, h.config.PoolLimit)
		if err == nil {
			return pool, SourceSearch, nil
		}
		if h.profiles == nil || ctx.Err() != nil {
			return nil, "", h.searchError(ctx, city, err)
		}
		h.logger.Warn("candidate search failed, falling back to database", map[string]interface{}{
			"city":  city,
			"error": err.Error(),
		})
	}
	if h.profiles == nil {
		return nil, "", errors.NewInvalidInputError("no candidate source configured, pass a pool inline")
	}

	pool, err := h.profiles.ListByCity(ctx, city, h.config.PoolLimit)
	if err != nil {
		return nil, "", h.searchError(ctx, city, err)
	}
	return pool, SourceDatabase, nil
}

func (h *Handler) searchError(ctx context.Context, city string, err error) error {
	if ctx.Err() != nil {
		return errors.NewTimeoutError("candidate search", err)
	}
	return errors.NewCandidateSearchFailedError(city, err)
}

func sourceLabel(source string) string {
	if source == "" {
		return "none"
	}
	return source
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
