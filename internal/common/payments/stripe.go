package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"mintslip-workers/internal/common/backend"
	"mintslip-workers/internal/common/config"
	"mintslip-workers/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeSessionAPI is the part of the Checkout Sessions API the gateway uses.
type StripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeSessions struct{}

func (stripeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

func (stripeSessions) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.Get(id, params)
}

// CheckoutStatusAPI polls checkout status through the backend.
type CheckoutStatusAPI interface {
	CheckoutStatus(ctx context.Context, token, sessionID string) (*backend.CheckoutStatus, error)
}

type StripeGateway struct {
	cfg      config.StripeConfig
	sessions StripeSessionAPI
	status   CheckoutStatusAPI
}

func NewStripeGateway(cfg config.StripeConfig, status CheckoutStatusAPI) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{cfg: cfg, sessions: stripeSessions{}, status: status}
}

func NewStripeGatewayWithAPI(cfg config.StripeConfig, sessions StripeSessionAPI, status CheckoutStatusAPI) *StripeGateway {
	return &StripeGateway{cfg: cfg, sessions: sessions, status: status}
}

func (g *StripeGateway) Provider() models.PaymentProvider {
	return models.ProviderStripe
}

// CreateCheckout opens a hosted Checkout session in payment mode.
func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error) {
	currency := strings.ToLower(req.Currency)
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(g.cfg.SuccessURL),
		CancelURL:  stripe.String(g.cfg.CancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(toMinorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	if req.UserID != "" {
		params.ClientReferenceID = stripe.String(req.UserID)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.AddMetadata("documentType", req.DocumentType)

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}

	return &models.CheckoutSession{
		Provider:    models.ProviderStripe,
		Reference:   s.ID,
		RedirectURL: s.URL,
		Amount:      req.Amount,
		Currency:    currency,
	}, nil
}

// Verify reads the session status from Stripe, or from the backend when
// configured to poll through it.
func (g *StripeGateway) Verify(ctx context.Context, reference string) (*Verification, error) {
	v := &Verification{Provider: models.ProviderStripe, Reference: reference}

	if g.cfg.VerifyViaBackend && g.status != nil {
		st, err := g.status.CheckoutStatus(ctx, "", reference)
		if err != nil {
			return nil, err
		}
		v.Status = stripeStatus(st.Status, st.PaymentStatus)
		return v, nil
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.sessions.Get(reference, params)
	if err != nil {
		return nil, fmt.Errorf("get stripe checkout session: %w", err)
	}
	v.Status = stripeStatus(string(s.Status), string(s.PaymentStatus))
	v.AmountPaid = float64(s.AmountTotal) / 100
	v.Currency = string(s.Currency)
	return v, nil
}

func stripeStatus(status, paymentStatus string) models.PaymentStatus {
	switch {
	case status == string(stripe.CheckoutSessionStatusComplete) &&
		(paymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid) ||
			paymentStatus == string(stripe.CheckoutSessionPaymentStatusNoPaymentRequired)):
		return models.PaymentStatusPaid
	case status == string(stripe.CheckoutSessionStatusExpired):
		return models.PaymentStatusCancelled
	default:
		return models.PaymentStatusPending
	}
}

// CompletedSession is the subset of a checkout.session.completed event the
// service acts on.
type CompletedSession struct {
	SessionID     string
	PaymentStatus string
	Metadata      map[string]string
}

// ParseWebhook verifies the Stripe signature and returns the completed session,
// or nil for event types the service ignores.
func ParseWebhook(payload []byte, signature, secret string) (*CompletedSession, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify webhook: %w", err)
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &CompletedSession{
		SessionID:     s.ID,
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      s.Metadata,
	}, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
