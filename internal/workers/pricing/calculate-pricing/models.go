// internal/workers/pricing/calculate-pricing/models.go
package calculatepricing

import "mintslip-workers/internal/pricing"

// Input prices either a single documentType or a batch in documentTypes.
type Input struct {
	DocumentType  string   `json:"documentType"`
	DocumentTypes []string `json:"documentTypes,omitempty"`
	CouponCode    string   `json:"couponCode,omitempty"`
}

type Output struct {
	Amount          float64            `json:"amount"`
	Subtotal        float64            `json:"subtotal"`
	Currency        string             `json:"currency"`
	DiscountPercent float64            `json:"discountPercent"`
	CouponApplied   string             `json:"couponApplied,omitempty"`
	PricingItems    []pricing.LineItem `json:"pricingItems"`
	Description     string             `json:"description"`
}
