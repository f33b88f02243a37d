// internal/workers/matching/pair-daily-matches/handler.go
package pairdailymatches

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
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

const TaskType = "pair-daily-matches"

type Handler struct {
	config       *Config
	scorer       *matching.Scorer
	profiles     store.ProfileStore
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	newRunID     func() string
}

func NewHandler(config *Config, profileStore store.ProfileStore, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		scorer:       matching.NewScorer(config.Weights),
		profiles:     profileStore,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
		newRunID:     uuid.NewString,
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
				attribute.String("run.id", output.RunID),
				attribute.Int("pairings", len(output.Pairings)),
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
	result, err := validation.ValidateJSON(validation.SchemaPairDailyMatches, []byte(variables))
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}

	var setA, setB []models.DinerProfile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		setA, err = profiles.ResolveMany(gctx, h.profiles, input.SetA, input.SetAIDs)
		return err
	})
	g.Go(func() error {
		var err error
		setB, err = profiles.ResolveMany(gctx, h.profiles, input.SetB, input.SetBIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	runID := h.newRunID()
	pairings, stats := h.scorer.DailyMostCompatibleWithStats(setA, setB)

	byID := make(map[string]*models.DinerProfile, len(setA)+len(setB))
	for i := range setB {
		byID["b:"+setB[i].ID] = &setB[i]
	}
	for i := range setA {
		byID["a:"+setA[i].ID] = &setA[i]
	}
	matches := make([]Match, 0, len(pairings))
	for _, p := range pairings {
		a, b := byID["a:"+p.AID], byID["b:"+p.BID]
		m := Match{AID: p.AID, BID: p.BID}
		if a != nil && b != nil {
			m.Recip = h.scorer.ReciprocalScore(a, b)
			metrics.ReciprocalScore.WithLabelValues(TaskType).Observe(m.Recip)
		}
		matches = append(matches, m)
	}

	metrics.PairingProposals.Observe(float64(stats.Proposals))
	metrics.PairingUnmatched.Add(float64(len(stats.Unmatched)))

	h.logger.Info("daily pairing completed", map[string]interface{}{
		"runId":     runID,
		"setA":      len(setA),
		"setB":      len(setB),
		"pairings":  len(pairings),
		"unmatched": len(stats.Unmatched),
		"proposals": stats.Proposals,
	})

	return &Output{
		RunID:     runID,
		Pairings:  pairings,
		Matches:   matches,
		Unmatched: stats.Unmatched,
		Proposals: stats.Proposals,
	}, nil
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
