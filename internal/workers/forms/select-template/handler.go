// internal/workers/forms/select-template/handler.go
package selecttemplate

import (
	"context"
	"strings"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/documents"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "select-template"
)

type Handler struct {
	config *Config
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		runner: camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

// Execute resolves the template variant to render. An empty templateId
// selects the document type's first template.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	def, err := documents.Lookup(input.DocumentType)
	if err != nil {
		return nil, err
	}

	requested := strings.ToLower(strings.TrimSpace(input.TemplateID))
	templateID, err := def.ResolveTemplate(requested)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("template selected", map[string]interface{}{
		"documentType": input.DocumentType,
		"templateId":   templateID,
	})

	return &Output{
		TemplateID:         templateID,
		AvailableTemplates: append([]string(nil), def.Templates...),
		DefaultApplied:     requested == "",
	}, nil
}
