package calc

import (
	"math"
	"strings"
	"time"
)

type PayFrequency string

const (
	Weekly      PayFrequency = "weekly"
	Biweekly    PayFrequency = "biweekly"
	Semimonthly PayFrequency = "semimonthly"
	Monthly     PayFrequency = "monthly"
)

// PeriodsPerYear defaults to biweekly for an unknown frequency.
func (f PayFrequency) PeriodsPerYear() int {
	switch f {
	case Weekly:
		return 52
	case Semimonthly:
		return 24
	case Monthly:
		return 12
	default:
		return 26
	}
}

// PeriodsElapsed counts the pay periods of the year up to and including payDate.
func (f PayFrequency) PeriodsElapsed(payDate time.Time) int {
	doy := payDate.YearDay()
	var n int
	switch f {
	case Weekly:
		n = int(math.Ceil(float64(doy) / 7))
	case Semimonthly:
		n = (int(payDate.Month())-1)*2 + 1
		if payDate.Day() > 15 {
			n++
		}
	case Monthly:
		n = int(payDate.Month())
	default:
		n = int(math.Ceil(float64(doy) / 14))
	}
	if limit := f.PeriodsPerYear(); n > limit {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return n
}

type PaystubInput struct {
	HourlyRate    float64
	Hours         float64
	OvertimeHours float64
	State         string
	Frequency     PayFrequency
	// PeriodsToDate multiplies the current period into year-to-date figures.
	// Zero derives it from PayDate.
	PeriodsToDate int
	PayDate       time.Time
}

// PayAmounts is one column of a pay stub: current period or year to date.
type PayAmounts struct {
	RegularPay  float64 `json:"regularPay"`
	OvertimePay float64 `json:"overtimePay"`
	GrossPay    float64 `json:"grossPay"`
	SocialSec   float64 `json:"socialSecurity"`
	Medicare    float64 `json:"medicare"`
	StateTax    float64 `json:"stateTax"`
	TotalTax    float64 `json:"totalTax"`
	NetPay      float64 `json:"netPay"`
}

type Paystub struct {
	Current       PayAmounts   `json:"current"`
	YearToDate    PayAmounts   `json:"yearToDate"`
	StateRate     float64      `json:"stateRate"`
	Frequency     PayFrequency `json:"frequency"`
	PeriodsToDate int          `json:"periodsToDate"`
}

// CalculatePaystub computes the unrounded amounts; callers round for display.
// Negative inputs are treated as zero.
func CalculatePaystub(in PaystubInput) Paystub {
	rate := nonNegative(in.HourlyRate)
	hours := nonNegative(in.Hours)
	overtime := nonNegative(in.OvertimeHours)
	stateRate := StateTaxRate(strings.ToUpper(strings.TrimSpace(in.State)))

	current := payAmounts(hours*rate, overtime*rate*OvertimeMultiplier, stateRate)

	freq := in.Frequency
	if freq == "" {
		freq = Biweekly
	}
	periods := in.PeriodsToDate
	if periods <= 0 {
		if in.PayDate.IsZero() {
			periods = 1
		} else {
			periods = freq.PeriodsElapsed(in.PayDate)
		}
	}
	ytd := payAmounts(current.RegularPay*float64(periods), current.OvertimePay*float64(periods), stateRate)

	return Paystub{
		Current:       current,
		YearToDate:    ytd,
		StateRate:     stateRate,
		Frequency:     freq,
		PeriodsToDate: periods,
	}
}

func payAmounts(regular, overtime, stateRate float64) PayAmounts {
	gross := regular + overtime
	p := PayAmounts{
		RegularPay:  regular,
		OvertimePay: overtime,
		GrossPay:    gross,
		SocialSec:   gross * SocialSecurityRate,
		Medicare:    gross * MedicareRate,
		StateTax:    gross * stateRate,
	}
	p.TotalTax = p.SocialSec + p.Medicare + p.StateTax
	p.NetPay = gross - p.TotalTax
	return p
}

// Rounded returns a copy rounded to cents, with net pay taken from the
// rounded gross and tax so the column adds up.
func (p PayAmounts) Rounded() PayAmounts {
	r := PayAmounts{
		RegularPay:  Round2(p.RegularPay),
		OvertimePay: Round2(p.OvertimePay),
		GrossPay:    Round2(p.GrossPay),
		SocialSec:   Round2(p.SocialSec),
		Medicare:    Round2(p.Medicare),
		StateTax:    Round2(p.StateTax),
		TotalTax:    Round2(p.TotalTax),
	}
	r.NetPay = Round2(r.GrossPay - r.TotalTax)
	return r
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
