// internal/workers/subscription/consume-download/handler.go
package consumedownload

import (
	"context"

	"mintslip-workers/internal/common/backend"
	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/metrics"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/common/payments"
	validatesubscription "mintslip-workers/internal/workers/subscription/validate-subscription"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "consume-download"
)

type QuotaConsumer interface {
	ConsumeDownload(ctx context.Context, token, documentType string) (*backend.DownloadResult, error)
}

// Ledger remembers the outcome of a deduction so a redelivered job replays it.
type Ledger interface {
	Reserve(ctx context.Context, key string, out interface{}) (bool, error)
	Complete(ctx context.Context, key string, result interface{}) error
	Release(ctx context.Context, key string) error
}

type Handler struct {
	config  *Config
	backend QuotaConsumer
	ledger  Ledger
	redis   *redis.Client
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, backend QuotaConsumer, ledger Ledger, redis *redis.Client, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		backend: backend,
		ledger:  ledger,
		redis:   redis,
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

// Execute takes one download off the user's quota, at most once per form
// session. The cached subscription snapshot is dropped afterwards whatever
// the outcome.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserToken == "" {
		return nil, errors.NewAuthenticationFailedError("userToken is required")
	}
	if input.DocumentType == "" {
		return nil, errors.NewFormValidationFailedError("documentType is required")
	}
	if input.FormSessionID == "" {
		return nil, errors.NewFormValidationFailedError("formSessionId is required")
	}

	key := payments.DownloadKey(input.FormSessionID)
	var recorded Output
	fresh, err := h.ledger.Reserve(ctx, key, &recorded)
	if err != nil {
		// ErrInFlight lands here too: the retry replays once the other delivery completes.
		return nil, errors.NewCacheUnavailableError(err)
	}
	if !fresh {
		h.logger.Info("download already consumed for form session", map[string]interface{}{
			"formSessionId": input.FormSessionID,
		})
		return &recorded, nil
	}

	output, err := h.consume(ctx, input)
	if err != nil {
		if relErr := h.ledger.Release(ctx, key); relErr != nil {
			h.logger.Warn("download reservation release failed", map[string]interface{}{
				"formSessionId": input.FormSessionID,
				"error":         relErr.Error(),
			})
		}
		return nil, err
	}
	if err := h.ledger.Complete(ctx, key, output); err != nil {
		h.logger.Warn("download result not recorded", map[string]interface{}{
			"formSessionId": input.FormSessionID,
			"error":         err.Error(),
		})
	}
	return output, nil
}

func (h *Handler) consume(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.backend.ConsumeDownload(ctx, input.UserToken, input.DocumentType)
	h.invalidate(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		h.logger.Info("download quota exhausted", map[string]interface{}{
			"userId":  input.UserID,
			"message": res.Message,
		})
		return nil, errors.NewDownloadQuotaExhaustedError()
	}

	tier := input.SubscriptionTier
	if tier == "" {
		tier = "unknown"
	}
	metrics.DownloadsConsumed.WithLabelValues(tier).Inc()

	h.logger.Info("download consumed", map[string]interface{}{
		"userId":             input.UserID,
		"documentType":       input.DocumentType,
		"downloadsRemaining": res.DownloadsRemaining,
	})
	return &Output{DownloadConsumed: true, DownloadsRemaining: res.DownloadsRemaining}, nil
}

func (h *Handler) invalidate(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if err := h.redis.Del(ctx, validatesubscription.CacheKey(userID)).Err(); err != nil {
		h.logger.Warn("subscription cache invalidation failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
}
