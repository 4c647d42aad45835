// internal/workers/auth/auth-signup/handler.go
package authsignup

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
	TaskType = "auth-signup"
)

type Registrar interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.Session, error)
}

type Handler struct {
	config *Config
	auth   Registrar
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, auth Registrar, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		auth:   auth,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	req := models.SignupRequest{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: input.Password,
	}

	res, err := validation.ValidateDocument(inputSchema, map[string]interface{}{
		"name":     req.Name,
		"email":    req.Email,
		"password": req.Password,
	})
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !res.Valid {
		return nil, errors.NewFormValidationFailedError(strings.Join(res.GetErrorMessages(), "; ")).
			WithMetadata("fields", res.Fields())
	}

	session, err := h.auth.Signup(ctx, req)
	if err != nil {
		return nil, err
	}

	h.logger.Info("user signed up", map[string]interface{}{"userId": session.User.ID})
	return &Output{
		Token:     session.Token,
		User:      session.User,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
