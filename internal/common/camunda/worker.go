// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"time"

	"mintslip-workers/internal/common/config"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/metrics"
	"mintslip-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// JobHandler is implemented by every worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobRunner carries the job lifecycle shared by all workers: decode, execute
// under timeout, complete or hand the error to the ErrorHandler.
type JobRunner struct {
	TaskType     string
	Timeout      time.Duration
	Logger       logger.Logger
	ErrorHandler *errors.ErrorHandler
	Obs          *observability.Observability
}

func NewJobRunner(taskType string, timeout time.Duration, log logger.Logger, obs *observability.Observability) *JobRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobRunner{
		TaskType:     taskType,
		Timeout:      timeout,
		Logger:       log,
		ErrorHandler: errors.NewErrorHandler(log),
		Obs:          obs,
	}
}

// Run decodes the job variables into input and completes the job with the
// value returned by fn.
func (r *JobRunner) Run(client worker.JobClient, job entities.Job, input interface{}, fn func(ctx context.Context) (interface{}, error)) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.TaskType).Dec()

	r.Logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()

	ctx, span := r.Obs.StartSpan(ctx, r.TaskType,
		attribute.Int64("job.key", job.Key),
		attribute.Int64("process.instance.key", job.ProcessInstanceKey),
	)
	defer span.End()

	if err := json.Unmarshal([]byte(job.Variables), input); err != nil {
		r.fail(ctx, client, job, errors.NewInputParsingFailedError(err), start)
		span.SetStatus(codes.Error, "input parsing failed")
		return
	}

	output, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.fail(ctx, client, job, err, start)
		return
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.fail(ctx, client, job, errors.NewInternalError(err), start)
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		r.Logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.ObserveJob(r.TaskType, start)
	r.Obs.RecordJobProcessed(ctx, r.TaskType, "completed")
	r.Obs.RecordJobDuration(ctx, r.TaskType, time.Since(start), "completed")

	r.Logger.Info("job completed", map[string]interface{}{
		"jobKey":   job.Key,
		"duration": time.Since(start).String(),
	})
}

func (r *JobRunner) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := r.ErrorHandler.HandleJobError(context.Background(), client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(r.TaskType, string(code)).Inc()
	r.Obs.RecordJobProcessed(ctx, r.TaskType, "failed")
	r.Obs.RecordJobDuration(ctx, r.TaskType, time.Since(start), "failed")
}

// StartWorker opens a job worker for taskType using the per-worker settings.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, log logger.Logger) worker.JobWorker {
	maxJobs := wcfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = 5
	}
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	w := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobs).
		Timeout(timeout).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobs,
		"timeout":       timeout.String(),
	})
	return w
}
