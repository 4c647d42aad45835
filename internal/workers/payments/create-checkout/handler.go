// internal/workers/payments/create-checkout/handler.go
package createcheckout

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
	TaskType = "create-checkout"
)

type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, provider models.PaymentProvider, req payments.CheckoutRequest) (*payments.CheckoutResult, error)
}

type Handler struct {
	config   *Config
	payments CheckoutCreator
	runner   *camunda.JobRunner
	logger   logger.Logger
}

func NewHandler(config *Config, svc CheckoutCreator, log logger.Logger, obs *observability.Observability) *Handler {
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	provider := models.PaymentProvider(strings.ToLower(strings.TrimSpace(input.PaymentProvider)))
	if provider == "" {
		provider = models.ProviderStripe
	}
	currency := input.Currency
	if currency == "" {
		currency = h.config.DefaultCurrency
	}
	description := input.Description
	if description == "" {
		description = "MintSlip " + input.DocumentType
	}

	res, err := h.payments.CreateCheckout(ctx, provider, payments.CheckoutRequest{
		Amount:         input.Amount,
		Currency:       currency,
		Description:    description,
		IdempotencyKey: input.IdempotencyKey,
		UserID:         input.UserID,
		DocumentType:   input.DocumentType,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("checkout created", map[string]interface{}{
		"provider":  provider,
		"reference": res.Session.Reference,
		"duplicate": res.Duplicate,
	})

	return &Output{
		PaymentReference:  res.Session.Reference,
		CheckoutURL:       res.Session.RedirectURL,
		PaymentProvider:   string(provider),
		Amount:            res.Session.Amount,
		Currency:          res.Session.Currency,
		CheckoutDuplicate: res.Duplicate,
	}, nil
}
