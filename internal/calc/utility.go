package calc

// GallonsPerCCF converts hundred cubic feet of water to gallons.
const GallonsPerCCF = 748.0

type UtilityCharges struct {
	BaseCharge      float64 `json:"baseCharge"`
	UsageCharge     float64 `json:"usageCharge"`
	Taxes           float64 `json:"taxes"`
	Fees            float64 `json:"fees"`
	DiscountAmount  float64 `json:"discountAmount"`
	PreviousBalance float64 `json:"previousBalance"`
	PaymentReceived float64 `json:"paymentReceived"`
}

// CurrentCharges is the amount billed for this period alone.
func (c UtilityCharges) CurrentCharges() float64 {
	return Round2(c.BaseCharge + c.UsageCharge + c.Taxes + c.Fees - c.DiscountAmount)
}

// AmountDue carries the previous balance and any payment received.
func (c UtilityCharges) AmountDue() float64 {
	return Round2(c.BaseCharge + c.UsageCharge + c.Taxes + c.Fees - c.DiscountAmount + c.PreviousBalance - c.PaymentReceived)
}

func UsageGallons(ccf float64) float64 {
	return Round2(nonNegative(ccf) * GallonsPerCCF)
}
