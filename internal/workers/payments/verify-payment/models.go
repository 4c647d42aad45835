// internal/workers/payments/verify-payment/models.go
package verifypayment

type Input struct {
	PaymentProvider  string `json:"paymentProvider"`
	PaymentReference string `json:"paymentReference"`
}

type Output struct {
	PaymentStatus    string  `json:"paymentStatus"`
	PaymentVerified  bool    `json:"paymentVerified"`
	AmountPaid       float64 `json:"amountPaid"`
	PaymentDuplicate bool    `json:"paymentDuplicate"`
}
