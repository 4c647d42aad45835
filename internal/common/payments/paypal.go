package payments

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"mintslip-workers/internal/common/config"
	"mintslip-workers/internal/models"

	"github.com/plutov/paypal/v4"
)

type PayPalGateway struct {
	cfg    config.PayPalConfig
	client *paypal.Client
}

type createOrderBody struct {
	Intent             string                       `json:"intent"`
	PurchaseUnits      []paypal.PurchaseUnitRequest `json:"purchase_units"`
	ApplicationContext *paypal.ApplicationContext   `json:"application_context,omitempty"`
}

func NewPayPalGateway(cfg config.PayPalConfig) (*PayPalGateway, error) {
	base := paypal.APIBaseSandBox
	if cfg.Mode == "live" {
		base = paypal.APIBaseLive
	}
	return NewPayPalGatewayWithBase(cfg, base)
}

// NewPayPalGatewayWithBase points the gateway at an explicit API base URL.
func NewPayPalGatewayWithBase(cfg config.PayPalConfig, apiBase string) (*PayPalGateway, error) {
	client, err := paypal.NewClient(cfg.ClientID, cfg.ClientSecret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("create paypal client: %w", err)
	}
	return &PayPalGateway{cfg: cfg, client: client}, nil
}

func (g *PayPalGateway) Provider() models.PaymentProvider {
	return models.ProviderPayPal
}

// CreateCheckout creates a capture-intent order. The idempotency key is sent as
// PayPal-Request-Id so PayPal also deduplicates the call.
func (g *PayPalGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error) {
	currency := strings.ToUpper(req.Currency)
	body := createOrderBody{
		Intent: paypal.OrderIntentCapture,
		PurchaseUnits: []paypal.PurchaseUnitRequest{
			{
				Amount: &paypal.PurchaseUnitAmount{
					Currency: currency,
					Value:    strconv.FormatFloat(req.Amount, 'f', 2, 64),
				},
				Description: req.Description,
				CustomID:    req.UserID,
			},
		},
		ApplicationContext: &paypal.ApplicationContext{
			BrandName: g.cfg.BrandName,
			ReturnURL: g.cfg.ReturnURL,
			CancelURL: g.cfg.CancelURL,
		},
	}

	httpReq, err := g.client.NewRequest(ctx, http.MethodPost, g.client.APIBase+"/v2/checkout/orders", body)
	if err != nil {
		return nil, fmt.Errorf("build paypal order request: %w", err)
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("PayPal-Request-Id", req.IdempotencyKey)
	}

	order := &paypal.Order{}
	if err := g.client.SendWithAuth(httpReq, order); err != nil {
		return nil, fmt.Errorf("create paypal order: %w", err)
	}

	return &models.CheckoutSession{
		Provider:    models.ProviderPayPal,
		Reference:   order.ID,
		RedirectURL: approvalLink(order.Links),
		Amount:      req.Amount,
		Currency:    currency,
	}, nil
}

// Verify captures an approved order. A capture on an order the buyer has not
// approved yet reports pending.
func (g *PayPalGateway) Verify(ctx context.Context, reference string) (*Verification, error) {
	httpReq, err := g.client.NewRequest(ctx, http.MethodPost, g.client.APIBase+"/v2/checkout/orders/"+reference+"/capture", paypal.CaptureOrderRequest{})
	if err != nil {
		return nil, fmt.Errorf("build paypal capture request: %w", err)
	}
	httpReq.Header.Set("PayPal-Request-Id", "capture-"+reference)

	resp := &paypal.CaptureOrderResponse{}
	if err := g.client.SendWithAuth(httpReq, resp); err != nil {
		if isNotApproved(err) {
			return &Verification{Provider: models.ProviderPayPal, Reference: reference, Status: models.PaymentStatusPending}, nil
		}
		return nil, fmt.Errorf("capture paypal order: %w", err)
	}

	v := &Verification{
		Provider:  models.ProviderPayPal,
		Reference: reference,
		Status:    paypalStatus(resp.Status),
	}
	for _, unit := range resp.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, capture := range unit.Payments.Captures {
			if capture.Amount == nil {
				continue
			}
			amount, _ := strconv.ParseFloat(capture.Amount.Value, 64)
			v.AmountPaid += amount
			v.Currency = capture.Amount.Currency
		}
	}
	return v, nil
}

func paypalStatus(status string) models.PaymentStatus {
	switch strings.ToUpper(status) {
	case "COMPLETED":
		return models.PaymentStatusPaid
	case "VOIDED":
		return models.PaymentStatusCancelled
	case "CREATED", "SAVED", "APPROVED", "PAYER_ACTION_REQUIRED", "PENDING":
		return models.PaymentStatusPending
	default:
		return models.PaymentStatusFailed
	}
}

func approvalLink(links []paypal.Link) string {
	for _, l := range links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

func isNotApproved(err error) bool {
	if errResp, ok := err.(*paypal.ErrorResponse); ok {
		if errResp.Name == "UNPROCESSABLE_ENTITY" {
			for _, d := range errResp.Details {
				if d.Issue == "ORDER_NOT_APPROVED" {
					return true
				}
			}
		}
	}
	return false
}
