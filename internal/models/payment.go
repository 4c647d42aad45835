package models

import "time"

type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderPayPal PaymentProvider = "paypal"
)

type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment records one checkout attempt with a provider.
type Payment struct {
	Reference      string          `json:"reference" db:"reference"`
	Provider       PaymentProvider `json:"provider" db:"provider"`
	IdempotencyKey string          `json:"idempotencyKey" db:"idempotency_key"`
	UserID         string          `json:"userId,omitempty" db:"user_id"`
	Amount         float64         `json:"amount" db:"amount"`
	Currency       string          `json:"currency" db:"currency"`
	Status         PaymentStatus   `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// CheckoutSession is what the client needs to send the user to the provider.
type CheckoutSession struct {
	Provider    PaymentProvider `json:"provider"`
	Reference   string          `json:"reference"`
	RedirectURL string          `json:"redirectUrl"`
	Amount      float64         `json:"amount"`
	Currency    string          `json:"currency"`
}
