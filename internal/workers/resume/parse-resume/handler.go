// internal/workers/resume/parse-resume/handler.go
package parseresume

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/documents"
	"mintslip-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "parse-resume"
)

type ResumeParser interface {
	ParseResume(ctx context.Context, token, fileName, contentType string, content []byte) (*models.ParsedResume, error)
}

type Handler struct {
	config  *Config
	backend ResumeParser
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, client ResumeParser, log logger.Logger, obs *observability.Observability) *Handler {
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

// Execute validates the uploaded resume locally, so a rejected file never
// reaches the backend, then maps the parsed result onto resume form fields.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserToken == "" {
		return nil, errors.NewAuthenticationFailedError("userToken is required")
	}

	content, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input.FileContent))
	if err != nil {
		return nil, errors.NewFileRejectedError("fileContent is not valid base64")
	}
	upload, err := documents.ValidateUpload(documents.UploadResume, input.FileName, content, h.config.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	resume, err := h.backend.ParseResume(ctx, input.UserToken, upload.FileName, upload.ContentType, upload.Content)
	if err != nil {
		return nil, err
	}

	h.logger.Info("resume parsed", map[string]interface{}{
		"contentType": upload.ContentType,
		"experience":  len(resume.Experience),
		"education":   len(resume.Education),
	})
	return &Output{Resume: *resume, FormData: toFormData(resume)}, nil
}

// toFormData flattens a parsed resume into the resume wizard's fields.
func toFormData(r *models.ParsedResume) map[string]string {
	form := map[string]string{
		"fullName": r.Name,
		"email":    r.Email,
		"phone":    r.Phone,
		"location": r.Location,
		"summary":  r.Summary,
		"skills":   strings.Join(r.Skills, ", "),
	}
	if len(r.Experience) > 0 {
		if b, err := json.Marshal(r.Experience); err == nil {
			form["experience"] = string(b)
		}
	}
	if len(r.Education) > 0 {
		if b, err := json.Marshal(r.Education); err == nil {
			form["education"] = string(b)
		}
	}
	for k, v := range form {
		if v == "" {
			delete(form, k)
		}
	}
	return form
}
