// internal/workers/payments/verify-payment/handler.go
package verifypayment

import (
	"context"
	"strings"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/common/payments"
	"mintslip-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "verify-payment"
)

type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, provider models.PaymentProvider, reference string) (*payments.Verification, error)
}

type Handler struct {
	config   *Config
	payments PaymentVerifier
	runner   *camunda.JobRunner
	logger   logger.Logger
}

func NewHandler(config *Config, svc PaymentVerifier, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		payments: svc,
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

// Execute confirms the payment with the provider. A replayed confirmation for
// an already fulfilled reference reports PaymentDuplicate so the process can
// skip a second document generation.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	provider := models.PaymentProvider(strings.ToLower(strings.TrimSpace(input.PaymentProvider)))
	if provider == "" {
		provider = models.ProviderStripe
	}

	v, err := h.payments.VerifyPayment(ctx, provider, strings.TrimSpace(input.PaymentReference))
	if err != nil {
		return nil, err
	}

	if v.Duplicate {
		h.logger.Warn("payment already fulfilled", map[string]interface{}{
			"provider":  provider,
			"reference": input.PaymentReference,
		})
	}

	return &Output{
		PaymentStatus:    string(v.Status),
		PaymentVerified:  v.Status == models.PaymentStatusPaid,
		AmountPaid:       v.AmountPaid,
		PaymentDuplicate: v.Duplicate,
	}, nil
}
