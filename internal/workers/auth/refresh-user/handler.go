// internal/workers/auth/refresh-user/handler.go
package refreshuser

import (
	"context"
	"strings"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "refresh-user"
)

type UserRefresher interface {
	RefreshUser(ctx context.Context, token string) (*models.User, error)
}

type Handler struct {
	config *Config
	auth   UserRefresher
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, auth UserRefresher, log logger.Logger, obs *observability.Observability) *Handler {
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

// Execute reloads the user from the backend and rewrites the session
// snapshot, typically after a subscription purchase.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	token := strings.TrimSpace(strings.TrimPrefix(input.Token, "Bearer "))
	if token == "" {
		return nil, errors.NewAuthenticationFailedError("token is required")
	}

	user, err := h.auth.RefreshUser(ctx, token)
	if err != nil {
		return nil, err
	}

	h.logger.Info("user refreshed", map[string]interface{}{
		"userId": user.ID,
		"tier":   user.Tier(),
	})
	return &Output{
		User:                  *user,
		HasActiveSubscription: user.HasActiveSubscription(),
		SubscriptionTier:      user.Tier(),
	}, nil
}
