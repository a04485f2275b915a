// internal/workers/application/set-application-status/handler.go
package setapplicationstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/common/logger"
	"incubator-portal/internal/common/metrics"
	"incubator-portal/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "set-application-status"
)

// StatusSetter is the slice of the application service the worker drives.
type StatusSetter interface {
	SetStatusAs(ctx context.Context, actor models.Actor, id, status string) (*models.Application, error)
}

type Handler struct {
	config       *Config
	service      StatusSetter
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service StatusSetter, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		verr := apperrors.NewRequestValidationError("applicationId", "applicationStatus")
		verr.Details = fmt.Sprintf("parse input: %v", err)
		h.fail(ctx, client, job, verr, start)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" {
		return nil, apperrors.NewRequestValidationError("applicationId")
	}

	app, err := h.service.SetStatusAs(ctx, h.config.Actor, input.ApplicationID, input.ApplicationStatus)
	if err != nil {
		return nil, err
	}

	h.logger.Info("application status set by workflow", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"status":        string(app.Status),
	})

	return &Output{
		ApplicationID:     app.ApplicationID,
		ApplicationStatus: string(app.Status),
		UpdatedDateTime:   app.UpdatedDateTime.Format(time.RFC3339Nano),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := apperrors.CodeOf(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
