package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"mintslip-workers/internal/calc"
	"mintslip-workers/internal/documents"
	"mintslip-workers/internal/models"
)

// Placeholders shown for blank fields. Numbers default to 0.
const (
	phCompanyName    = "Company Name"
	phCompanyAddress = "Company Address"
	phEmployeeName   = "Employee Name"
	phAddress        = "Address"
	phDate           = "MM/DD/YYYY"
	phBankName       = "Bank Name"
	phAccountHolder  = "Account Holder"
	phProviderName   = "Utility Provider"
	phCustomerName   = "Customer Name"
	phFullName       = "Your Name"
	phEmail          = "email@example.com"
	phNotProvided    = "N/A"
)

type paystubView struct {
	CompanyName     string
	CompanyAddress  string
	CompanyPhone    string
	EmployeeName    string
	EmployeeAddress string
	EmployeeSSN     string
	EmployeeID      string
	PayDate         string
	PeriodStart     string
	PeriodEnd       string
	Frequency       string
	CheckNumber     string
	State           string
	Rate            float64
	Hours           float64
	OvertimeHours   float64
	OvertimeRate    float64
	StateRatePct    float64
	Current         calc.PayAmounts
	YearToDate      calc.PayAmounts
}

func buildPaystub(f documents.FormData) paystubView {
	p := calc.CalculatePaystub(calc.PaystubInput{
		HourlyRate:    f.Float("hourlyRate"),
		Hours:         f.Float("hours"),
		OvertimeHours: f.Float("overtimeHours"),
		State:         f["state"],
		Frequency:     calc.PayFrequency(f["payFrequency"]),
		PeriodsToDate: int(f.Float("periodsToDate")),
		PayDate:       parseDate(f["payDate"]),
	})
	rate := math.Max(0, f.Float("hourlyRate"))
	return paystubView{
		CompanyName:     f.String("companyName", phCompanyName),
		CompanyAddress:  f.String("companyAddress", phCompanyAddress),
		CompanyPhone:    f.String("companyPhone", ""),
		EmployeeName:    f.String("employeeName", phEmployeeName),
		EmployeeAddress: f.String("employeeAddress", phAddress),
		EmployeeSSN:     "XXX-XX-" + f.String("employeeSsn", "0000"),
		EmployeeID:      f.String("employeeId", phNotProvided),
		PayDate:         f.String("payDate", phDate),
		PeriodStart:     f.String("payPeriodStart", phDate),
		PeriodEnd:       f.String("payPeriodEnd", phDate),
		Frequency:       string(p.Frequency),
		CheckNumber:     f.String("checkNumber", phNotProvided),
		State:           f.String("state", phNotProvided),
		Rate:            calc.Round2(rate),
		Hours:           math.Max(0, f.Float("hours")),
		OvertimeHours:   math.Max(0, f.Float("overtimeHours")),
		OvertimeRate:    calc.Round2(rate * calc.OvertimeMultiplier),
		StateRatePct:    p.StateRate * 100,
		Current:         p.Current.Rounded(),
		YearToDate:      p.YearToDate.Rounded(),
	}
}

type w2View struct {
	EmployerName    string
	EmployerEIN     string
	EmployerAddress string
	EmployeeName    string
	EmployeeSSN     string
	EmployeeAddress string
	TaxYear         string
	Boxes           calc.W2
}

func buildW2(f documents.FormData) w2View {
	return w2View{
		EmployerName:    f.String("employerName", phCompanyName),
		EmployerEIN:     f.String("employerEin", "00-0000000"),
		EmployerAddress: f.String("employerAddress", phCompanyAddress),
		EmployeeName:    f.String("employeeName", phEmployeeName),
		EmployeeSSN:     "XXX-XX-" + f.String("employeeSsn", "0000"),
		EmployeeAddress: f.String("employeeAddress", phAddress),
		TaxYear:         f.String("taxYear", "YYYY"),
		Boxes: calc.CalculateW2(calc.W2Input{
			AnnualWages:     f.Float("annualWages"),
			FederalWithheld: f.Float("federalWithheld"),
			State:           f["state"],
			StateWages:      f.Float("stateWages"),
		}),
	}
}

type utilityView struct {
	ProviderName   string
	ProviderPhone  string
	AccountNumber  string
	CustomerName   string
	ServiceAddress string
	ZipCode        string
	PeriodStart    string
	PeriodEnd      string
	DueDate        string
	Usage          float64
	Gallons        float64
	Charges        calc.UtilityCharges
	CurrentCharges float64
	AmountDue      float64
}

func buildUtility(f documents.FormData) utilityView {
	charges := calc.UtilityCharges{
		BaseCharge:      f.Float("baseCharge"),
		UsageCharge:     f.Float("usageCharge"),
		Taxes:           f.Float("taxes"),
		Fees:            f.Float("fees"),
		DiscountAmount:  f.Float("discountAmount"),
		PreviousBalance: f.Float("previousBalance"),
		PaymentReceived: f.Float("paymentReceived"),
	}
	usage := f.Float("usage")
	return utilityView{
		ProviderName:   f.String("providerName", phProviderName),
		ProviderPhone:  f.String("providerPhone", ""),
		AccountNumber:  f.String("accountNumber", "0000000000"),
		CustomerName:   f.String("customerName", phCustomerName),
		ServiceAddress: f.String("serviceAddress", phAddress),
		ZipCode:        f.String("zipCode", ""),
		PeriodStart:    f.String("billingPeriodStart", phDate),
		PeriodEnd:      f.String("billingPeriodEnd", phDate),
		DueDate:        f.String("dueDate", phDate),
		Usage:          calc.Round2(usage),
		Gallons:        calc.UsageGallons(usage),
		Charges:        charges,
		CurrentCharges: charges.CurrentCharges(),
		AmountDue:      charges.AmountDue(),
	}
}

type bankStatementView struct {
	BankName       string
	BankAddress    string
	AccountHolder  string
	AccountNumber  string
	HolderAddress  string
	PostalCode     string
	StatementStart string
	StatementEnd   string
	Summary        calc.StatementSummary
}

func buildBankStatement(f documents.FormData) bankStatementView {
	return bankStatementView{
		BankName:       f.String("bankName", phBankName),
		BankAddress:    f.String("bankAddress", phAddress),
		AccountHolder:  f.String("accountHolder", phAccountHolder),
		AccountNumber:  "****" + documents.FormatLast4(f.String("accountNumber", "0000")),
		HolderAddress:  f.String("holderAddress", phAddress),
		PostalCode:     f.String("postalCode", ""),
		StatementStart: f.String("statementStart", phDate),
		StatementEnd:   f.String("statementEnd", phDate),
		Summary:        calc.Summarize(f.Float("openingBalance"), calc.ParseTransactions(f["transactions"])),
	}
}

type resumeView struct {
	FullName   string
	Email      string
	Phone      string
	Location   string
	Summary    string
	Skills     []string
	Experience []models.ResumeExperience
	Education  []models.ResumeEducation
}

func buildResume(f documents.FormData) resumeView {
	v := resumeView{
		FullName: f.String("fullName", phFullName),
		Email:    f.String("email", phEmail),
		Phone:    f.String("phone", ""),
		Location: f.String("location", ""),
		Summary:  f.String("summary", ""),
		Skills:   splitList(f["skills"]),
	}
	f.JSON("experience", &v.Experience)
	f.JSON("education", &v.Education)

	for i := range v.Experience {
		var bullets []string
		for _, r := range v.Experience[i].Responsibilities {
			for _, line := range strings.Split(r, "\n") {
				line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•*"))
				if line != "" {
					bullets = append(bullets, line)
				}
			}
		}
		v.Experience[i].Responsibilities = bullets
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func buildView(docType documents.DocumentType, f documents.FormData) (interface{}, error) {
	switch docType {
	case documents.Paystub:
		return buildPaystub(f), nil
	case documents.W2:
		return buildW2(f), nil
	case documents.UtilityBill:
		return buildUtility(f), nil
	case documents.BankStatement:
		return buildBankStatement(f), nil
	case documents.Resume:
		return buildResume(f), nil
	default:
		return nil, fmt.Errorf("no view for document type %q", docType)
	}
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
