package camunda

import (
	"context"
	"time"

	"studyabroad-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// JobHandler handles one activated job and answers it itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Registration describes one job worker subscription.
type Registration struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

// Open starts a job worker for reg. Close the returned worker on shutdown.
func (c *Client) Open(reg Registration, handler JobHandler) worker.JobWorker {
	jw := c.client.NewJobWorker().
		JobType(reg.TaskType).
		Handler(handler.Handle).
		MaxJobsActive(reg.MaxJobsActive).
		Timeout(reg.Timeout).
		Name(reg.TaskType + "-worker").
		Open()

	c.logger.Info("worker started", map[string]interface{}{
		"taskType":      reg.TaskType,
		"maxJobsActive": reg.MaxJobsActive,
		"timeout":       reg.Timeout.String(),
	})
	return jw
}

// CompleteJob completes job with output as its variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}
