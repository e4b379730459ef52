package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler reports failed jobs to the workflow engine. Every failure is
// thrown as a BPMN error; jobs are never failed with remaining retries.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError normalizes err and throws it on the job.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) *BPMNError {
	stdErr, ok := AsStandard(err)
	if !ok {
		stdErr = NewInternalError(err)
	}
	bpmnErr := ConvertToBPMNError(stdErr)

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"jobType":            job.GetType(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"errorCode":          string(stdErr.Code),
		"bpmnErrorCode":      bpmnErr.Code,
		"details":            stdErr.Details,
		"userRetryable":      stdErr.Retryable,
		"errorCategory":      GetErrorCategory(stdErr.Code),
	})

	h.throw(ctx, client, job, bpmnErr)
	return bpmnErr
}

func (h *ErrorHandler) throw(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.GetKey()).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if payload, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(payload)); err == nil {
			if _, err := withVars.Send(ctx); err != nil {
				h.logger.Error("failed to throw BPMN error", map[string]interface{}{
					"jobKey": job.GetKey(),
					"error":  err.Error(),
				})
			}
			return
		}
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to throw BPMN error", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}
