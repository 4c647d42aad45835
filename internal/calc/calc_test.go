package calc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestCalculatePaystub_CaliforniaScenario(t *testing.T) {
	p := CalculatePaystub(PaystubInput{HourlyRate: 25, Hours: 80, OvertimeHours: 5, State: "CA"})

	c := p.Current
	assert.InDelta(t, 2000.00, c.RegularPay, tolerance)
	assert.InDelta(t, 187.50, c.OvertimePay, tolerance)
	assert.InDelta(t, 2187.50, c.GrossPay, tolerance)
	assert.InDelta(t, 131.25, c.StateTax, tolerance)
	assert.InDelta(t, 135.625, c.SocialSec, tolerance)
	assert.InDelta(t, 31.71875, c.Medicare, tolerance)

	r := c.Rounded()
	assert.Equal(t, 298.59, r.TotalTax)
	assert.Equal(t, 1888.91, r.NetPay)
	assert.Equal(t, 1888.91, Round2(c.NetPay))
}

func TestCalculatePaystub_Properties(t *testing.T) {
	inputs := []PaystubInput{
		{},
		{HourlyRate: 0.01, Hours: 1},
		{HourlyRate: 17.35, Hours: 37.5, OvertimeHours: 2.25, State: "NY"},
		{HourlyRate: 120, Hours: 86.67, OvertimeHours: 14, State: "tx"},
		{HourlyRate: 33.333, Hours: 79.9, OvertimeHours: 0.1, State: "ZZ"},
	}
	for _, in := range inputs {
		c := CalculatePaystub(in).Current
		assert.InDelta(t, in.Hours*in.HourlyRate+in.OvertimeHours*in.HourlyRate*1.5, c.GrossPay, 1e-6)
		assert.InDelta(t, c.SocialSec+c.Medicare+c.StateTax, c.TotalTax, 1e-9)
		assert.Equal(t, Round2(c.GrossPay-c.TotalTax), Round2(c.NetPay))

		r := c.Rounded()
		assert.Equal(t, Round2(r.GrossPay-r.TotalTax), r.NetPay)
	}
}

func TestCalculatePaystub_NegativeInputsAreZero(t *testing.T) {
	c := CalculatePaystub(PaystubInput{HourlyRate: -25, Hours: 80, OvertimeHours: -5}).Current
	assert.Equal(t, 0.0, c.GrossPay)
	assert.Equal(t, 0.0, c.NetPay)
}

func TestCalculatePaystub_YearToDate(t *testing.T) {
	p := CalculatePaystub(PaystubInput{HourlyRate: 20, Hours: 80, Frequency: Biweekly, PeriodsToDate: 6, State: "CA"})
	assert.Equal(t, 6, p.PeriodsToDate)
	assert.InDelta(t, 9600, p.YearToDate.GrossPay, tolerance)
	assert.InDelta(t, 9600*0.06, p.YearToDate.StateTax, 1e-6)

	derived := CalculatePaystub(PaystubInput{HourlyRate: 20, Hours: 40, Frequency: Monthly, PayDate: time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)})
	assert.Equal(t, 4, derived.PeriodsToDate)

	single := CalculatePaystub(PaystubInput{HourlyRate: 20, Hours: 40})
	assert.Equal(t, 1, single.PeriodsToDate)
	assert.Equal(t, Biweekly, single.Frequency)
	assert.Equal(t, single.Current, single.YearToDate)
}

func TestPayFrequency_PeriodsElapsed(t *testing.T) {
	tests := []struct {
		freq PayFrequency
		date time.Time
		want int
	}{
		{Weekly, time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), 1},
		{Weekly, time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC), 2},
		{Weekly, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), 52},
		{Biweekly, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 3},
		{Semimonthly, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), 5},
		{Semimonthly, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 6},
		{Monthly, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.freq.PeriodsElapsed(tt.date), "%s %s", tt.freq, tt.date.Format("2006-01-02"))
	}
	assert.Equal(t, 26, PayFrequency("fortnightly").PeriodsPerYear())
}

func TestCalculateW2(t *testing.T) {
	w := CalculateW2(W2Input{AnnualWages: 56875, FederalWithheld: 6200, State: "ca"})
	assert.Equal(t, 56875.0, w.Box1Wages)
	assert.Equal(t, 6200.0, w.Box2FederalWithheld)
	assert.Equal(t, 56875.0, w.Box3SocialSecWages)
	assert.Equal(t, 3526.25, w.Box4SocialSecTax)
	assert.Equal(t, 56875.0, w.Box5MedicareWages)
	assert.Equal(t, 824.69, w.Box6MedicareTax)
	assert.Equal(t, "CA", w.Box15State)
	assert.Equal(t, 56875.0, w.Box16StateWages)
	assert.Equal(t, 3412.5, w.Box17StateIncomeTax)
}

func TestCalculateW2_WageBaseAndNoState(t *testing.T) {
	w := CalculateW2(W2Input{AnnualWages: 250000})
	assert.Equal(t, SocialSecurityWageBase, w.Box3SocialSecWages)
	assert.Equal(t, Round2(SocialSecurityWageBase*SocialSecurityRate), w.Box4SocialSecTax)
	assert.Equal(t, 250000.0, w.Box5MedicareWages)
	assert.Equal(t, 0.0, w.Box16StateWages)
	assert.Equal(t, 0.0, w.Box17StateIncomeTax)
}

func TestUtilityCharges_AmountDue(t *testing.T) {
	c := UtilityCharges{
		BaseCharge: 10, UsageCharge: 20, Taxes: 3, Fees: 2,
		DiscountAmount: 5, PreviousBalance: 58.01, PaymentReceived: 58.01,
	}
	assert.Equal(t, 30.00, c.AmountDue())
	assert.Equal(t, 30.00, c.CurrentCharges())

	c.PaymentReceived = 0
	assert.Equal(t, 88.01, c.AmountDue())

	assert.Equal(t, 0.0, UtilityCharges{}.AmountDue())
}

func TestUsageGallons(t *testing.T) {
	assert.Equal(t, 7480.0, UsageGallons(10))
	assert.Equal(t, 0.0, UsageGallons(-4))
}

func TestParseTransactions(t *testing.T) {
	fromJSON := ParseTransactions(`[{"date":"2026-03-01","description":"Payroll","amount":1500},{"date":"2026-03-02","description":"Rent","amount":-1200.5}]`)
	require.Len(t, fromJSON, 2)
	assert.Equal(t, -1200.5, fromJSON[1].Amount)

	fromText := ParseTransactions("2026-03-01 | Payroll | 1,500.00\n\n2026-03-03 | Coffee, large | -4.75\nnot a transaction\n2026-03-04, Grocer, $-62.10")
	require.Len(t, fromText, 3)
	assert.Equal(t, "Coffee, large", fromText[1].Description)
	assert.Equal(t, -62.10, fromText[2].Amount)

	assert.Nil(t, ParseTransactions("   "))
}

func TestSummarize(t *testing.T) {
	s := Summarize(1000, []Transaction{
		{Date: "2026-03-01", Description: "Payroll", Amount: 1500},
		{Date: "2026-03-02", Description: "Rent", Amount: -1200.5},
		{Date: "2026-03-03", Description: "Coffee", Amount: -4.75},
	})
	assert.Equal(t, 1000.0, s.OpeningBalance)
	assert.Equal(t, 1500.0, s.TotalDeposits)
	assert.Equal(t, 1205.25, s.TotalWithdrawals)
	assert.Equal(t, 1294.75, s.ClosingBalance)
	require.Len(t, s.Transactions, 3)
	assert.Equal(t, 2500.0, s.Transactions[0].Balance)
	assert.Equal(t, 1294.75, s.Transactions[2].Balance)

	empty := Summarize(42.5, nil)
	assert.Equal(t, 42.5, empty.ClosingBalance)
	assert.Empty(t, empty.Transactions)
}

func TestStateTaxRate(t *testing.T) {
	assert.Equal(t, 0.06, StateTaxRate("CA"))
	assert.Equal(t, 0.0, StateTaxRate("TX"))
	assert.Equal(t, 0.0, StateTaxRate("??"))
}
