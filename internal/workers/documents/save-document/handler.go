// internal/workers/documents/save-document/handler.go
package savedocument

import (
	"context"

	"mintslip-workers/internal/common/backend"
	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "save-document"
)

// logoField is dropped before saving; the data URI can be megabytes.
const logoField = "logoDataUri"

type DocumentSaver interface {
	SaveDocument(ctx context.Context, token string, doc backend.SavedDocument) (*backend.SavedDocumentResult, error)
}

type Handler struct {
	config  *Config
	backend DocumentSaver
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, client DocumentSaver, log logger.Logger, obs *observability.Observability) *Handler {
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

// Execute stores the generated document in the user's saved documents on
// the backend.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserToken == "" {
		return nil, errors.NewAuthenticationFailedError("userToken is required")
	}
	if input.FileName == "" {
		return nil, errors.NewFormValidationFailedError("fileName is required")
	}

	form := make(map[string]string, len(input.FormData))
	for k, v := range input.FormData {
		if k != logoField {
			form[k] = v
		}
	}

	res, err := h.backend.SaveDocument(ctx, input.UserToken, backend.SavedDocument{
		DocumentType: input.DocumentType,
		Template:     input.TemplateID,
		FileName:     input.FileName,
		DownloadURL:  input.DownloadURL,
		FormData:     form,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("document saved", map[string]interface{}{
		"savedDocumentId": res.ID,
		"documentType":    input.DocumentType,
	})
	return &Output{SavedDocumentID: res.ID}, nil
}
