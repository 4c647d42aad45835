package render

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/metrics"
	"mintslip-workers/internal/documents"
)

type pdfLine struct {
	Label string
	Value string
}

type pdfSection struct {
	Heading string
	Lines   []pdfLine
}

type pdfLayout struct {
	Title    string
	Subtitle string
	Sections []pdfSection
}

// RenderPDF lays out the same view model as Render on a maroto page. The
// result is not pixel-identical to the HTML.
func (r *Renderer) RenderPDF(docType, templateID string, form documents.FormData, opts Options) ([]byte, error) {
	def, view, tid, err := prepare(docType, templateID, form)
	if err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(12).
		WithTopMargin(15).
		WithRightMargin(12).
		Build()
	m := maroto.New(cfg)

	layout := layoutFor(def.Title, view)
	theme := pdfThemeFor(tid)
	if wm := strings.TrimSpace(opts.Watermark); wm != "" {
		m.AddRow(12, col.New(12).Add(text.New(wm, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Align: align.Center,
			Color: &props.Color{Red: 220, Green: 38, Blue: 38},
		})))
	}
	addPDFHeader(m, layout, theme)
	for _, s := range layout.Sections {
		addPDFSection(m, s, theme)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, errors.NewPDFGenerationFailedError(err)
	}
	metrics.DocumentsRendered.WithLabelValues(string(def.Type), "pdf").Inc()
	return doc.GetBytes(), nil
}

// pdfTheme carries the look of an HTML template over to the PDF: template-a
// is a light header ruled in green, template-b a solid navy band.
type pdfTheme struct {
	Accent props.Color
	Band   bool
}

func pdfThemeFor(templateID string) pdfTheme {
	if templateID == documents.TemplateB {
		return pdfTheme{Accent: props.Color{Red: 26, Green: 54, Blue: 93}, Band: true}
	}
	return pdfTheme{Accent: props.Color{Red: 47, Green: 133, Blue: 90}}
}

func addPDFHeader(m core.Maroto, l pdfLayout, theme pdfTheme) {
	titleColor := theme.Accent
	if theme.Band {
		titleColor = props.WhiteColor
	}
	row := m.AddRow(20,
		col.New(8).Add(
			text.New(l.Title, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Left, Left: 2, Color: &titleColor}),
			text.New(l.Subtitle, props.Text{Size: 9, Top: 8, Align: align.Left, Left: 2, Color: &titleColor}),
		),
	)
	if theme.Band {
		accent := theme.Accent
		row.WithStyle(&props.Cell{BackgroundColor: &accent})
		m.AddRow(4)
		return
	}
	m.AddRow(4, line.NewCol(12, props.Line{Color: &theme.Accent, Thickness: 1}))
}

func addPDFSection(m core.Maroto, s pdfSection, theme pdfTheme) {
	accent := theme.Accent
	m.AddRow(8, col.New(12).Add(
		text.New(strings.ToUpper(s.Heading), props.Text{Size: 10, Style: fontstyle.Bold, Top: 2, Color: &accent}),
	))
	for _, l := range s.Lines {
		m.AddRow(6,
			col.New(7).Add(text.New(l.Label, props.Text{Size: 9, Align: align.Left})),
			col.New(5).Add(text.New(l.Value, props.Text{Size: 9, Align: align.Right})),
		)
	}
	m.AddRow(3, line.NewCol(12))
}

func usd(v float64) string {
	return "$" + money(v)
}

func layoutFor(title string, view interface{}) pdfLayout {
	switch v := view.(type) {
	case paystubView:
		return pdfLayout{
			Title:    v.CompanyName,
			Subtitle: fmt.Sprintf("%s | Pay date %s | Check #%s", title, v.PayDate, v.CheckNumber),
			Sections: []pdfSection{
				{Heading: "Employee", Lines: []pdfLine{
					{"Name", v.EmployeeName},
					{"SSN", v.EmployeeSSN},
					{"Period", v.PeriodStart + " - " + v.PeriodEnd},
				}},
				{Heading: "Earnings", Lines: []pdfLine{
					{fmt.Sprintf("Regular %s hrs @ %s", money(v.Hours), usd(v.Rate)), usd(v.Current.RegularPay)},
					{fmt.Sprintf("Overtime %s hrs @ %s", money(v.OvertimeHours), usd(v.OvertimeRate)), usd(v.Current.OvertimePay)},
					{"Gross Pay", usd(v.Current.GrossPay)},
					{"Gross Pay YTD", usd(v.YearToDate.GrossPay)},
				}},
				{Heading: "Deductions", Lines: []pdfLine{
					{"Social Security", usd(v.Current.SocialSec)},
					{"Medicare", usd(v.Current.Medicare)},
					{fmt.Sprintf("State Tax %s (%s%%)", v.State, money(v.StateRatePct)), usd(v.Current.StateTax)},
					{"Total Tax", usd(v.Current.TotalTax)},
				}},
				{Heading: "Net Pay", Lines: []pdfLine{
					{"Current", usd(v.Current.NetPay)},
					{"Year to Date", usd(v.YearToDate.NetPay)},
				}},
			},
		}
	case w2View:
		b := v.Boxes
		return pdfLayout{
			Title:    "Form W-2 " + v.TaxYear,
			Subtitle: v.EmployerName + " | EIN " + v.EmployerEIN,
			Sections: []pdfSection{
				{Heading: "Employee", Lines: []pdfLine{{"Name", v.EmployeeName}, {"SSN", v.EmployeeSSN}, {"Address", v.EmployeeAddress}}},
				{Heading: "Wages and Taxes", Lines: []pdfLine{
					{"1 Wages, tips, other compensation", usd(b.Box1Wages)},
					{"2 Federal income tax withheld", usd(b.Box2FederalWithheld)},
					{"3 Social security wages", usd(b.Box3SocialSecWages)},
					{"4 Social security tax withheld", usd(b.Box4SocialSecTax)},
					{"5 Medicare wages and tips", usd(b.Box5MedicareWages)},
					{"6 Medicare tax withheld", usd(b.Box6MedicareTax)},
					{"16 State wages", usd(b.Box16StateWages)},
					{"17 State income tax", usd(b.Box17StateIncomeTax)},
				}},
			},
		}
	case utilityView:
		return pdfLayout{
			Title:    v.ProviderName,
			Subtitle: fmt.Sprintf("Account #%s | Due %s", v.AccountNumber, v.DueDate),
			Sections: []pdfSection{
				{Heading: "Service", Lines: []pdfLine{
					{"Customer", v.CustomerName},
					{"Address", strings.TrimSpace(v.ServiceAddress + " " + v.ZipCode)},
					{"Period", v.PeriodStart + " - " + v.PeriodEnd},
					{"Usage", money(v.Usage)},
				}},
				{Heading: "Charges", Lines: []pdfLine{
					{"Previous Balance", usd(v.Charges.PreviousBalance)},
					{"Payment Received", "-" + usd(v.Charges.PaymentReceived)},
					{"Base Charge", usd(v.Charges.BaseCharge)},
					{"Usage Charge", usd(v.Charges.UsageCharge)},
					{"Taxes", usd(v.Charges.Taxes)},
					{"Fees", usd(v.Charges.Fees)},
					{"Discount", "-" + usd(v.Charges.DiscountAmount)},
					{"Amount Due", usd(v.AmountDue)},
				}},
			},
		}
	case bankStatementView:
		txns := make([]pdfLine, 0, len(v.Summary.Transactions))
		for _, t := range v.Summary.Transactions {
			txns = append(txns, pdfLine{t.Date + "  " + t.Description, signed(t.Amount)})
		}
		return pdfLayout{
			Title:    v.BankName,
			Subtitle: fmt.Sprintf("%s | %s | %s - %s", v.AccountHolder, v.AccountNumber, v.StatementStart, v.StatementEnd),
			Sections: []pdfSection{
				{Heading: "Summary", Lines: []pdfLine{
					{"Opening Balance", usd(v.Summary.OpeningBalance)},
					{"Total Deposits", usd(v.Summary.TotalDeposits)},
					{"Total Withdrawals", "-" + usd(v.Summary.TotalWithdrawals)},
					{"Closing Balance", usd(v.Summary.ClosingBalance)},
				}},
				{Heading: "Transactions", Lines: txns},
			},
		}
	case resumeView:
		sections := []pdfSection{{Heading: "Summary", Lines: []pdfLine{{v.Summary, ""}}}}
		exp := pdfSection{Heading: "Experience"}
		for _, e := range v.Experience {
			exp.Lines = append(exp.Lines, pdfLine{e.JobTitle + ", " + e.Company, strings.TrimSpace(e.StartDate + " " + e.EndDate)})
			for _, b := range e.Responsibilities {
				exp.Lines = append(exp.Lines, pdfLine{"- " + b, ""})
			}
		}
		edu := pdfSection{Heading: "Education"}
		for _, e := range v.Education {
			edu.Lines = append(edu.Lines, pdfLine{strings.TrimSpace(e.School + " " + e.Degree + " " + e.Field), e.GraduationDate})
		}
		sections = append(sections, exp, edu, pdfSection{Heading: "Skills", Lines: []pdfLine{{strings.Join(v.Skills, ", "), ""}}})
		return pdfLayout{
			Title:    v.FullName,
			Subtitle: strings.Join(nonEmpty(v.Email, v.Phone, v.Location), " | "),
			Sections: sections,
		}
	}
	return pdfLayout{Title: title}
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
