// internal/workers/pricing/calculate-pricing/handler.go
package calculatepricing

import (
	"context"
	"fmt"
	"strings"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/pricing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-pricing"
)

type Quoter interface {
	Quote(ctx context.Context, docTypes []string, couponCode string) (*pricing.Quote, error)
}

type Handler struct {
	config *Config
	quoter Quoter
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, quoter Quoter, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		quoter: quoter,
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
	docTypes := input.DocumentTypes
	if len(docTypes) == 0 && input.DocumentType != "" {
		docTypes = []string{input.DocumentType}
	}

	quote, err := h.quoter.Quote(ctx, docTypes, strings.TrimSpace(input.CouponCode))
	if err != nil {
		return nil, err
	}

	out := &Output{
		Amount:       quote.Total,
		Subtotal:     quote.Subtotal,
		Currency:     quote.Currency,
		PricingItems: quote.Items,
		Description:  h.describe(docTypes),
	}
	if quote.Discount != nil {
		out.DiscountPercent = quote.Discount.DiscountPercent
		out.CouponApplied = quote.Discount.Code
	}

	h.logger.Info("order priced", map[string]interface{}{
		"documents": len(docTypes),
		"subtotal":  out.Subtotal,
		"amount":    out.Amount,
		"coupon":    out.CouponApplied,
	})
	return out, nil
}

// describe is the line shown on the provider's checkout page.
func (h *Handler) describe(docTypes []string) string {
	name := h.config.ProductName
	if name == "" {
		name = "MintSlip"
	}
	if len(docTypes) == 1 {
		return fmt.Sprintf("%s %s", name, strings.ReplaceAll(docTypes[0], "-", " "))
	}
	return fmt.Sprintf("%s bundle of %d documents", name, len(docTypes))
}
