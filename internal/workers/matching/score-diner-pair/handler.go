// internal/workers/matching/score-diner-pair/handler.go
package scoredinerpair

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"diner-matching/internal/common/errors"
	"diner-matching/internal/common/logger"
	"diner-matching/internal/common/metrics"
	"diner-matching/internal/common/observability"
	"diner-matching/internal/common/validation"
	"diner-matching/internal/matching"
	"diner-matching/internal/store"
	"diner-matching/internal/workers/matching/profiles"
)

const TaskType = "score-diner-pair"

type Handler struct {
	config       *Config
	scorer       *matching.Scorer
	profiles     store.ProfileStore
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the handler. profiles may be nil when every job carries
// its profiles inline.
func NewHandler(config *Config, profileStore store.ProfileStore, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		scorer:       matching.NewScorer(config.Weights),
		profiles:     profileStore,
		obs:          obs,
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

// ParseInput validates the raw job variables against the job schema and
// decodes them.
func ParseInput(variables string) (*Input, error) {
	result, err := validation.ValidateJSON(validation.SchemaScoreDinerPair, []byte(variables))
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

	u, err := profiles.Resolve(ctx, h.profiles, input.Diner, input.DinerID)
	if err != nil {
		return nil, err
	}
	v, err := profiles.Resolve(ctx, h.profiles, input.Candidate, input.CandidateID)
	if err != nil {
		return nil, err
	}

	puv := h.scorer.LikeProbability(u, v)
	pvu := h.scorer.LikeProbability(v, u)
	output := &Output{
		DinerID:     u.ID,
		CandidateID: v.ID,
		PUV:         puv,
		PVU:         pvu,
		Recip:       puv * pvu,
		Features:    matching.ExtractFeatures(u, v),
		Reasons:     matching.Explain(u, v, puv, pvu),
	}
	metrics.ReciprocalScore.WithLabelValues(TaskType).Observe(output.Recip)

	h.logger.Info("pair scored", map[string]interface{}{
		"dinerId":     u.ID,
		"candidateId": v.ID,
		"recip":       output.Recip,
		"reasons":     len(output.Reasons),
	})
	return output, nil
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
