package pricing

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"sort"
	"time"

	"mintslip-workers/internal/calc"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/models"
	"mintslip-workers/internal/repository"
)

// LineItem is one itemized charge: hours at a rate, a flat fee, a tax, or a
// per-document unit price.
type LineItem struct {
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    float64 `json:"quantity"`
}

func (l LineItem) Amount() float64 {
	return l.UnitPrice * l.Quantity
}

// ApplyDiscount reduces base by percent and rounds to cents. Percent is
// clamped to [0, 100].
func ApplyDiscount(base, percent float64) float64 {
	percent = math.Max(0, math.Min(100, percent))
	return calc.Round2(base * (1 - percent/100))
}

// CalculateTotal sums items, applies the optional discount and rounds.
func CalculateTotal(items []LineItem, discount *models.Discount) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Amount()
	}
	if discount == nil {
		return calc.Round2(sum)
	}
	return ApplyDiscount(sum, discount.DiscountPercent)
}

// Catalog is the base price per document type.
type Catalog struct {
	prices map[string]float64
}

func NewCatalog(prices map[string]float64) *Catalog {
	c := &Catalog{prices: make(map[string]float64, len(prices))}
	for k, v := range prices {
		c.prices[k] = v
	}
	return c
}

func (c *Catalog) Price(docType string) (float64, bool) {
	p, ok := c.prices[docType]
	return p, ok
}

// LineItems groups docTypes into one line per type, in name order.
func (c *Catalog) LineItems(docTypes []string) ([]LineItem, error) {
	counts := make(map[string]int, len(docTypes))
	for _, dt := range docTypes {
		if _, ok := c.prices[dt]; !ok {
			return nil, errors.NewTemplateNotFoundError(dt, "")
		}
		counts[dt]++
	}

	names := make([]string, 0, len(counts))
	for dt := range counts {
		names = append(names, dt)
	}
	sort.Strings(names)

	items := make([]LineItem, 0, len(names))
	for _, dt := range names {
		items = append(items, LineItem{
			Description: dt,
			UnitPrice:   c.prices[dt],
			Quantity:    float64(counts[dt]),
		})
	}
	return items, nil
}

type CouponFinder interface {
	Find(ctx context.Context, code string) (*models.Coupon, error)
}

// Quote is a priced order.
type Quote struct {
	Items    []LineItem       `json:"items"`
	Subtotal float64          `json:"subtotal"`
	Discount *models.Discount `json:"discount,omitempty"`
	Total    float64          `json:"total"`
	Currency string           `json:"currency"`
}

type Calculator struct {
	catalog  *Catalog
	coupons  CouponFinder
	currency string
	now      func() time.Time
}

func NewCalculator(catalog *Catalog, coupons CouponFinder, currency string) *Calculator {
	return &Calculator{catalog: catalog, coupons: coupons, currency: currency, now: time.Now}
}

// Quote prices docTypes and applies couponCode when it is set. An unknown,
// inactive or expired coupon fails the quote rather than being ignored.
func (c *Calculator) Quote(ctx context.Context, docTypes []string, couponCode string) (*Quote, error) {
	if len(docTypes) == 0 {
		return nil, errors.NewFormValidationFailedError("at least one document type is required")
	}
	items, err := c.catalog.LineItems(docTypes)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		Items:    items,
		Subtotal: CalculateTotal(items, nil),
		Currency: c.currency,
	}
	q.Total = q.Subtotal

	if couponCode == "" {
		return q, nil
	}
	discount, err := c.ResolveCoupon(ctx, couponCode, q.Subtotal)
	if err != nil {
		return nil, err
	}
	q.Discount = discount
	q.Total = discount.DiscountedPrice
	return q, nil
}

// ResolveCoupon turns code into a discount against base.
func (c *Calculator) ResolveCoupon(ctx context.Context, code string, base float64) (*models.Discount, error) {
	if c.coupons == nil {
		return nil, errors.NewCouponInvalidError(code)
	}
	coupon, err := c.coupons.Find(ctx, code)
	if err != nil {
		if stderrors.Is(err, repository.ErrCouponNotFound) {
			return nil, errors.NewCouponInvalidError(code)
		}
		return nil, errors.NewDatabaseQueryFailedError("coupon", fmt.Errorf("find coupon: %w", err))
	}
	if !coupon.Usable(c.now()) {
		return nil, errors.NewCouponInvalidError(code)
	}
	discounted := ApplyDiscount(base, coupon.DiscountPercent)
	// checkout cannot charge zero, so a coupon may not cover the whole order
	if discounted <= 0 {
		return nil, errors.NewCouponInvalidError(code)
	}
	return &models.Discount{
		Code:            coupon.Code,
		DiscountPercent: coupon.DiscountPercent,
		DiscountedPrice: discounted,
	}, nil
}
