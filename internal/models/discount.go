package models

import "time"

// Discount is a resolved coupon applied to a base price.
type Discount struct {
	Code            string  `json:"code,omitempty"`
	DiscountPercent float64 `json:"discountPercent"`
	DiscountedPrice float64 `json:"discountedPrice"`
}

// Coupon is the stored form of a discount code.
type Coupon struct {
	Code            string     `json:"code" db:"code"`
	DiscountPercent float64    `json:"discountPercent" db:"discount_percent"`
	Active          bool       `json:"active" db:"active"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
}

// Usable reports whether the coupon can be redeemed at now.
func (c *Coupon) Usable(now time.Time) bool {
	if c == nil || !c.Active {
		return false
	}
	return c.ExpiresAt == nil || now.Before(*c.ExpiresAt)
}
