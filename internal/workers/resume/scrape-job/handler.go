// internal/workers/resume/scrape-job/handler.go
package scrapejob

import (
	"context"
	"strings"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/common/validation"
	"mintslip-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "scrape-job"
)

type JobScraper interface {
	ScrapeJob(ctx context.Context, token, jobURL string) (*models.JobPosting, error)
}

type Handler struct {
	config  *Config
	backend JobScraper
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, client JobScraper, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		backend: client,
		runner:  camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
		logger:  log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserToken == "" {
		return nil, errors.NewAuthenticationFailedError("userToken is required")
	}
	jobURL := strings.TrimSpace(input.JobURL)
	if !validation.ValidateURL(jobURL) {
		return nil, errors.NewFormValidationFailedError("jobUrl must be an http(s) URL")
	}

	posting, err := h.backend.ScrapeJob(ctx, input.UserToken, jobURL)
	if err != nil {
		return nil, err
	}

	h.logger.Info("job posting scraped", map[string]interface{}{
		"title":   posting.Title,
		"company": posting.Company,
	})
	return &Output{JobPosting: *posting}, nil
}
