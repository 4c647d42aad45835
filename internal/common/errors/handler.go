// internal/common/errors/handler.go
package errors

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler handles job errors with standardized error handling
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError reports err for job. Infrastructure failures are failed with
// a retry budget while the job still has retries; everything else is thrown as a
// BPMN error so the process can route it. The returned code is meant for metrics.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) ErrorCode {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	h.logError(job, stdErr, bpmnErr)

	if bpmnErr.Retries > 0 && job.Retries > 1 {
		h.failJobWithRetries(ctx, client, job, bpmnErr)
	} else {
		h.throwBPMNError(ctx, client, job, bpmnErr)
	}
	return stdErr.Code
}

// remainingRetries is what the broker should keep after this attempt.
func remainingRetries(job entities.Job, budget int) int32 {
	remaining := job.Retries - 1
	if remaining > int32(budget) {
		remaining = int32(budget)
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(remainingRetries(job, bpmnErr.Retries)).
		ErrorMessage("[" + bpmnErr.Code + "] " + bpmnErr.Message)

	withVars, err := cmd.VariablesFromMap(bpmnErr.ToErrorVariables())
	if err != nil {
		h.logger.Error("failed to attach error variables", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
		if _, sendErr := cmd.Send(ctx); sendErr != nil {
			h.logger.Error("failed to send fail job command", map[string]interface{}{"jobKey": job.Key, "error": sendErr.Error()})
		}
		return
	}
	if _, err := withVars.Send(ctx); err != nil {
		h.logger.Error("failed to send fail job command", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
	}
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	withVars, err := cmd.VariablesFromMap(bpmnErr.ToErrorVariables())
	if err != nil {
		h.logger.Error("failed to attach error variables", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
		if _, sendErr := cmd.Send(ctx); sendErr != nil {
			h.logger.Error("failed to throw error", map[string]interface{}{"jobKey": job.Key, "error": sendErr.Error()})
		}
		return
	}
	if _, err := withVars.Send(ctx); err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
	}
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"message":          bpmnErr.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retries":          bpmnErr.Retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
