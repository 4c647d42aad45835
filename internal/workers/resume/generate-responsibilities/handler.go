// internal/workers/resume/generate-responsibilities/handler.go
package generateresponsibilities

import (
	"context"
	"strings"

	"mintslip-workers/internal/common/backend"
	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-responsibilities"
)

type ResponsibilityGenerator interface {
	GenerateResponsibilities(ctx context.Context, token string, req backend.ResponsibilitiesRequest) ([]string, error)
}

type Handler struct {
	config  *Config
	backend ResponsibilityGenerator
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, client ResponsibilityGenerator, log logger.Logger, obs *observability.Observability) *Handler {
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

// Execute asks the backend for bullet points for one experience entry. Blank
// and duplicate bullets are dropped.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserToken == "" {
		return nil, errors.NewAuthenticationFailedError("userToken is required")
	}
	title := strings.TrimSpace(input.JobTitle)
	if title == "" {
		return nil, errors.NewFormValidationFailedError("jobTitle is required")
	}

	raw, err := h.backend.GenerateResponsibilities(ctx, input.UserToken, backend.ResponsibilitiesRequest{
		JobTitle:    title,
		Company:     strings.TrimSpace(input.Company),
		Description: strings.TrimSpace(input.Description),
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(r), "-•*"))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}

	h.logger.Debug("responsibilities generated", map[string]interface{}{"count": len(out)})
	return &Output{Responsibilities: out}, nil
}
