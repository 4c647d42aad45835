// Package payments wraps the Stripe and PayPal checkout round trips.
package payments

import (
	"context"

	"mintslip-workers/internal/models"
)

// CheckoutRequest describes one purchase.
type CheckoutRequest struct {
	Amount         float64
	Currency       string
	Description    string
	IdempotencyKey string
	UserID         string
	DocumentType   string
}

// Verification is the provider's view of a checkout reference.
type Verification struct {
	Provider   models.PaymentProvider `json:"provider"`
	Reference  string                 `json:"reference"`
	Status     models.PaymentStatus   `json:"status"`
	AmountPaid float64                `json:"amountPaid"`
	Currency   string                 `json:"currency,omitempty"`
	Duplicate  bool                   `json:"duplicate"`
}

type Gateway interface {
	Provider() models.PaymentProvider
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
}

// PaymentRecorder persists payment rows. Insert must tolerate repeats.
type PaymentRecorder interface {
	Insert(ctx context.Context, p *models.Payment) error
	UpdateStatus(ctx context.Context, reference string, status models.PaymentStatus) error
}
