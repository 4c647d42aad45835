// internal/workers/auth/auth-logout/handler.go
package authlogout

import (
	"context"
	"strings"
	"time"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "auth-logout"
)

type SessionCloser interface {
	Logout(ctx context.Context, token string) (bool, error)
}

type Handler struct {
	config *Config
	auth   SessionCloser
	now    func() time.Time
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, auth SessionCloser, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		auth:   auth,
		now:    time.Now,
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

// Execute drops the server-side session. Logging out twice succeeds with
// SessionDeleted false.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	token := strings.TrimSpace(strings.TrimPrefix(input.Token, "Bearer "))
	if token == "" {
		return nil, errors.NewAuthenticationFailedError("token is required")
	}

	deleted, err := h.auth.Logout(ctx, token)
	if err != nil {
		return nil, err
	}

	h.logger.Info("user logged out", map[string]interface{}{"sessionDeleted": deleted})
	return &Output{
		LoggedOut:      true,
		SessionDeleted: deleted,
		LogoutAt:       h.now().UTC(),
	}, nil
}
