// internal/workers/forms/validate-form-data/handler.go
package validateformdata

import (
	"context"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/documents"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-form-data"
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

// Execute masks the submitted fields and checks them against the document
// type's schema. Nothing is persisted.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.DocumentType == "" {
		return nil, errors.NewFormValidationFailedError("documentType is required")
	}
	def, err := documents.Lookup(input.DocumentType)
	if err != nil {
		return nil, err
	}

	data := make(map[string]string, len(input.FormData))
	for k, v := range input.FormData {
		data[k] = v
	}
	documents.ApplyMasks(data)

	if err := def.Check(documents.FormData(data)); err != nil {
		h.logger.Info("form data rejected", map[string]interface{}{
			"formSessionId": input.FormSessionID,
			"documentType":  input.DocumentType,
		})
		return nil, err
	}

	return &Output{
		FormValid:  true,
		FormData:   data,
		FieldCount: len(data),
	}, nil
}
