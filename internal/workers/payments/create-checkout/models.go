// internal/workers/payments/create-checkout/models.go
package createcheckout

type Input struct {
	PaymentProvider string  `json:"paymentProvider"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency,omitempty"`
	Description     string  `json:"description,omitempty"`
	IdempotencyKey  string  `json:"idempotencyKey"`
	UserID          string  `json:"userId"`
	DocumentType    string  `json:"documentType"`
}

// Output carries paymentReference, the correlation key of the
// payment-confirmed message the process waits on next.
type Output struct {
	PaymentReference  string  `json:"paymentReference"`
	CheckoutURL       string  `json:"checkoutUrl"`
	PaymentProvider   string  `json:"paymentProvider"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	CheckoutDuplicate bool    `json:"checkoutDuplicate"`
}
