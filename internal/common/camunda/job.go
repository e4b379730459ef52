package camunda

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/common/metrics"
	"studyabroad-workers/internal/common/observability"
	"studyabroad-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// JobRecorder receives one call per finished job.
type JobRecorder interface {
	RecordJob(ctx context.Context, taskType, status string, d time.Duration)
}

// Runner carries the lifecycle shared by every worker: active gauge, span,
// timeout, completion and BPMN error reporting.
type Runner struct {
	TaskType string
	Timeout  time.Duration
	Logger   logger.Logger
	Recorder JobRecorder
}

// Run executes fn for job. A nil error completes the job with the returned
// variables; any error is thrown as a BPMN error.
func (r *Runner) Run(client worker.JobClient, job entities.Job, fn func(ctx context.Context) (interface{}, error)) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.TaskType).Dec()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx, span := observability.StartJobSpan(ctx, r.TaskType, job.GetKey())

	log := r.Logger.WithFields(map[string]interface{}{
		"jobKey":   job.GetKey(),
		"taskType": r.TaskType,
	})
	log.Info("processing job", map[string]interface{}{
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := fn(ctx)
	observability.EndSpan(span, err)

	status := "completed"
	if err != nil {
		status = "failed"
		metrics.WorkerJobsFailed.WithLabelValues(r.TaskType, string(errors.CodeOf(err))).Inc()
		errors.NewErrorHandler(log).HandleJobError(ctx, client, job, err)
	} else {
		CompleteJob(ctx, client, job, output, log)
		metrics.WorkerJobsCompleted.WithLabelValues(r.TaskType).Inc()
	}

	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(r.TaskType).Observe(elapsed.Seconds())
	if r.Recorder != nil {
		r.Recorder.RecordJob(ctx, r.TaskType, status, elapsed)
	}
}

// ParseVariables validates the job variables against schema and decodes
// them into dest.
func ParseVariables(job entities.Job, schema validation.JSONSchema, dest interface{}) error {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return errors.NewInputParsingError(err)
	}
	return DecodeVariables(vars, schema, dest)
}

// DecodeVariables is ParseVariables for already decoded variables.
func DecodeVariables(vars map[string]interface{}, schema validation.JSONSchema, dest interface{}) error {
	result := validation.ValidateInput(vars, schema)
	if !result.Valid {
		return errors.NewValidationError(result.FirstField(), strings.Join(result.GetErrorMessages(), "; "))
	}
	raw, err := json.Marshal(vars)
	if err != nil {
		return errors.NewInputParsingError(err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return errors.NewInputParsingError(err)
	}
	return nil
}
