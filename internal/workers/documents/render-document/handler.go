// internal/workers/documents/render-document/handler.go
package renderdocument

import (
	"context"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/documents"
	"mintslip-workers/internal/render"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "render-document"
)

type HTMLRenderer interface {
	Render(docType, templateID string, form documents.FormData, opts render.Options) (string, error)
}

type Handler struct {
	config   *Config
	renderer HTMLRenderer
	runner   *camunda.JobRunner
	logger   logger.Logger
}

func NewHandler(config *Config, renderer HTMLRenderer, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		renderer: renderer,
		runner:   camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

// Execute renders the final, unwatermarked HTML of the purchased document.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	html, err := h.renderer.Render(input.DocumentType, input.TemplateID, documents.FormData(input.FormData), render.Options{})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("document rendered", map[string]interface{}{
		"documentType": input.DocumentType,
		"templateId":   input.TemplateID,
		"bytes":        len(html),
	})
	return &Output{DocumentHTML: html}, nil
}
