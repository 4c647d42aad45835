// internal/workers/subscription/validate-subscription/handler.go
package validatesubscription

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "validate-subscription"
)

// UserFetcher reads the user snapshot from the remote backend.
type UserFetcher interface {
	Me(ctx context.Context, token string) (*models.User, error)
}

type Handler struct {
	config  *Config
	backend UserFetcher
	redis   *redis.Client
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, backend UserFetcher, redis *redis.Client, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		backend: backend,
		redis:   redis,
		runner:  camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
		logger:  log,
	}
}

// CacheKey is where the subscription snapshot of userID is cached.
func CacheKey(userID string) string {
	return "sub:" + userID
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

	cacheKey := CacheKey(input.UserID)
	if input.UserID != "" {
		if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var sub *models.Subscription
			if err := json.Unmarshal([]byte(val), &sub); err == nil {
				out := toOutput(sub)
				out.FromCache = true
				return out, nil
			}
		} else if !stderrors.Is(err, redis.Nil) {
			h.logger.Warn("subscription cache read failed", map[string]interface{}{
				"userId": input.UserID,
				"error":  err.Error(),
			})
		}
	}

	user, err := h.backend.Me(ctx, input.UserToken)
	if err != nil {
		if stdErr, ok := errors.AsStandardError(err); ok && stdErr.Code == errors.ErrCodeAuthenticationFailed {
			return nil, err
		}
		return nil, errors.NewSubscriptionCheckFailedError(err)
	}

	if input.UserID != "" {
		data, _ := json.Marshal(user.Subscription)
		if err := h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL).Err(); err != nil {
			h.logger.Warn("subscription cache write failed", map[string]interface{}{
				"userId": input.UserID,
				"error":  err.Error(),
			})
		}
	}

	out := toOutput(user.Subscription)
	h.logger.Info("subscription checked", map[string]interface{}{
		"userId": input.UserID,
		"active": out.HasActiveSubscription,
		"tier":   out.SubscriptionTier,
	})
	return out, nil
}

func toOutput(sub *models.Subscription) *Output {
	if sub == nil {
		return &Output{SubscriptionStatus: "none", SubscriptionTier: "none"}
	}
	tier := sub.Tier
	if tier == "" {
		tier = "none"
	}
	return &Output{
		HasActiveSubscription: sub.HasQuota(),
		SubscriptionStatus:    string(sub.Status),
		SubscriptionTier:      tier,
		DownloadsRemaining:    sub.DownloadsRemaining,
	}
}
