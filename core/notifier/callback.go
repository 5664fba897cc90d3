// Package notifier delivers best-effort completion callbacks. Delivery
// failures are logged and never affect a job's terminal status.
package notifier

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"training-orchestrator/core/models"
)

// CallbackPayload is the JSON body posted to a job's callback URL
type CallbackPayload struct {
	JobID    string                     `json:"job_id"`
	Status   models.JobStatus           `json:"status"`
	ModelID  string                     `json:"model_id,omitempty"`
	Metrics  *models.PerformanceMetrics `json:"metrics,omitempty"`
	EndedAt  *time.Time                 `json:"ended_at,omitempty"`
	Progress int                        `json:"progress"`
}

// Dispatcher posts completion callbacks over HTTP
type Dispatcher struct {
	client *resty.Client
	logger *zap.Logger
}

// NewDispatcher creates a callback dispatcher with a short timeout and a
// small retry budget; a slow subscriber must not hold the orchestrator.
func NewDispatcher(logger *zap.Logger, timeout time.Duration, retries int) *Dispatcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(200 * time.Millisecond)
	return &Dispatcher{client: client, logger: logger}
}

// JobCompleted posts the terminal snapshot of a job to its callback URL.
// The returned error is informational; callers log it and move on.
func (d *Dispatcher) JobCompleted(ctx context.Context, url string, job *models.TrainingJob) error {
	payload := CallbackPayload{
		JobID:    job.ID,
		Status:   job.Status,
		ModelID:  job.ModelID,
		Metrics:  job.Metrics,
		EndedAt:  job.EndedAt,
		Progress: job.Progress,
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)
	if err != nil {
		d.logger.Warn("callback dispatch failed",
			zap.String("job_id", job.ID),
			zap.String("url", url),
			zap.Error(err))
		return err
	}
	if resp.IsError() {
		d.logger.Warn("callback endpoint returned error",
			zap.String("job_id", job.ID),
			zap.String("url", url),
			zap.Int("status", resp.StatusCode()))
	}
	return nil
}
