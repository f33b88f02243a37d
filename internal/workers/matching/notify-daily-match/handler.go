// internal/workers/matching/notify-daily-match/handler.go
package notifydailymatch

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

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

const TaskType = "notify-daily-match"

// EmailSender is satisfied by aws.Mailer.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, text, html string) (string, error)
}

// SMSSender is satisfied by aws.Texter.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config       *Config
	scorer       *matching.Scorer
	profiles     store.ProfileStore
	email        EmailSender
	sms          SMSSender
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

type HandlerOptions struct {
	Config   *Config
	Profiles store.ProfileStore
	Email    EmailSender
	SMS      SMSSender
	Obs      *observability.Observability
	Logger   logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Config == nil {
		opts.Config = LoadConfig(nil)
	}
	if opts.Profiles == nil {
		return nil, fmt.Errorf("%s requires a profile store", TaskType)
	}
	if opts.Config.EmailEnabled && opts.Email == nil {
		return nil, fmt.Errorf("%s: email enabled without a sender", TaskType)
	}
	if opts.Config.SMSEnabled && opts.SMS == nil {
		return nil, fmt.Errorf("%s: sms enabled without a sender", TaskType)
	}

	log := opts.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       opts.Config,
		scorer:       matching.NewScorer(opts.Config.Weights),
		profiles:     opts.Profiles,
		email:        opts.Email,
		sms:          opts.SMS,
		obs:          opts.Obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
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
				attribute.String("notification.status", output.Status),
				attribute.Int("notification.sent", output.Sent),
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
	result, err := validation.ValidateJSON(validation.SchemaNotifyDailyMatch, []byte(variables))
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

// Execute tells both diners of every pairing who they were matched with.
// Diners without a profile or contact details are skipped. The job fails
// only when every attempted delivery failed, so a retry never repeats a
// message that already went out.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}

	output := &Output{
		NotificationID: uuid.NewString(),
		RunID:          input.RunID,
		Deliveries:     []Delivery{},
	}
	if !h.config.EmailEnabled && !h.config.SMSEnabled {
		output.Status = StatusDisabled
		return output, nil
	}

	ids := make([]string, 0, 2*len(input.Pairings))
	for _, p := range input.Pairings {
		ids = append(ids, p.AID, p.BID)
	}
	if err := profiles.DistinctIDs(ids); err != nil {
		return nil, err
	}
	list, err := h.profiles.ListByIDs(ctx, ids)
	var missing *store.MissingProfilesError
	if err != nil && !stderrors.As(err, &missing) {
		return nil, profiles.StoreError(ctx, err, "")
	}
	if missing != nil {
		h.logger.Warn("skipping diners without a profile", map[string]interface{}{
			"runId":      input.RunID,
			"missingIds": missing.IDs,
		})
	}

	byID := make(map[string]*models.DinerProfile, len(list))
	for i := range list {
		byID[list[i].ID] = &list[i]
	}

	for _, p := range input.Pairings {
		a, b := byID[p.AID], byID[p.BID]
		if a == nil || b == nil {
			output.Skipped += 2
			continue
		}
		h.notify(ctx, output, a, b)
		h.notify(ctx, output, b, a)
	}

	attempted := output.Sent + output.Failed
	switch {
	case attempted == 0:
		output.Status = StatusSkipped
	case output.Failed == 0:
		output.Status = StatusSent
	case output.Sent == 0:
		last := output.Deliveries[len(output.Deliveries)-1]
		return nil, errors.NewNotificationSendFailedError(last.Channel, stderrors.New(last.Error)).
			WithMetadata("failed", output.Failed)
	default:
		output.Status = StatusPartial
	}

	h.logger.Info("daily match notifications processed", map[string]interface{}{
		"runId":          input.RunID,
		"notificationId": output.NotificationID,
		"status":         output.Status,
		"sent":           output.Sent,
		"failed":         output.Failed,
		"skipped":        output.Skipped,
	})
	return output, nil
}

// notify sends self the news about partner on every enabled channel self has
// contact details for.
func (h *Handler) notify(ctx context.Context, out *Output, self, partner *models.DinerProfile) {
	puv := h.scorer.LikeProbability(self, partner)
	pvu := h.scorer.LikeProbability(partner, self)
	data := newMessageData(self, partner, matching.Explain(self, partner, puv, pvu))

	reached := false
	if h.config.EmailEnabled && self.Email != "" {
		reached = true
		h.record(out, self.ID, ChannelEmail, func() (string, error) {
			msg, err := renderEmail(data)
			if err != nil {
				return "", err
			}
			return h.email.SendEmail(ctx, self.Email, msg.Subject, msg.Text, msg.HTML)
		})
	}
	if h.config.SMSEnabled && self.Phone != "" {
		reached = true
		h.record(out, self.ID, ChannelSMS, func() (string, error) {
			msg, err := renderSMS(data)
			if err != nil {
				return "", err
			}
			return h.sms.SendSMS(ctx, self.Phone, msg)
		})
	}
	if !reached {
		out.Skipped++
	}
}

func (h *Handler) record(out *Output, dinerID, channel string, send func() (string, error)) {
	d := Delivery{DinerID: dinerID, Channel: channel}

	messageID, err := send()
	if err != nil {
		d.Status = StatusFailed
		d.Error = err.Error()
		out.Failed++
		h.logger.Warn("notification delivery failed", map[string]interface{}{
			"dinerId": dinerID,
			"channel": channel,
			"error":   err.Error(),
		})
	} else {
		d.Status = StatusSent
		d.MessageID = messageID
		out.Sent++
	}

	metrics.NotificationsSent.WithLabelValues(channel, d.Status).Inc()
	out.Deliveries = append(out.Deliveries, d)
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
