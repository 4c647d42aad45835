package documents

import (
	"embed"
	"fmt"
	"sort"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/validation"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type DocumentType string

const (
	Paystub       DocumentType = "paystub"
	W2            DocumentType = "w2"
	UtilityBill   DocumentType = "utility-bill"
	BankStatement DocumentType = "bank-statement"
	Resume        DocumentType = "resume"
)

const (
	TemplateA = "template-a"
	TemplateB = "template-b"
)

// Step is one screen of the form wizard.
type Step struct {
	Name     string   `json:"name"`
	Fields   []string `json:"fields"`
	Required []string `json:"required,omitempty"`
}

// Definition describes how one document type is collected and rendered.
type Definition struct {
	Type      DocumentType `json:"type"`
	Title     string       `json:"title"`
	Templates []string     `json:"templates"`
	Steps     []Step       `json:"steps"`

	schema string
}

var definitions = map[DocumentType]*Definition{
	Paystub: {
		Type:      Paystub,
		Title:     "Pay Stub",
		Templates: []string{TemplateA, TemplateB},
		Steps: []Step{
			{Name: "company", Fields: []string{"companyName", "companyAddress", "companyPhone", "zipCode", "logoDataUri"}, Required: []string{"companyName"}},
			{Name: "employee", Fields: []string{"employeeName", "employeeAddress", "employeeSsn", "employeeId"}, Required: []string{"employeeName"}},
			{Name: "pay", Fields: []string{"payFrequency", "payPeriodStart", "payPeriodEnd", "payDate", "hourlyRate", "hours", "overtimeHours", "periodsToDate", "state", "checkNumber"}, Required: []string{"payDate", "hourlyRate", "hours", "state"}},
			{Name: "preview"},
		},
	},
	W2: {
		Type:      W2,
		Title:     "W-2 Wage and Tax Statement",
		Templates: []string{TemplateA, TemplateB},
		Steps: []Step{
			{Name: "employer", Fields: []string{"employerName", "employerEin", "employerAddress"}, Required: []string{"employerName", "employerEin"}},
			{Name: "employee", Fields: []string{"employeeName", "employeeSsn", "employeeAddress", "zipCode"}, Required: []string{"employeeName", "employeeSsn"}},
			{Name: "wages", Fields: []string{"taxYear", "annualWages", "federalWithheld", "state", "stateWages"}, Required: []string{"taxYear", "annualWages"}},
			{Name: "preview"},
		},
	},
	UtilityBill: {
		Type:      UtilityBill,
		Title:     "Utility Bill",
		Templates: []string{TemplateA, TemplateB},
		Steps: []Step{
			{Name: "provider", Fields: []string{"providerName", "providerPhone", "accountNumber", "logoDataUri"}, Required: []string{"providerName", "accountNumber"}},
			{Name: "customer", Fields: []string{"customerName", "serviceAddress", "zipCode"}, Required: []string{"customerName", "serviceAddress"}},
			{Name: "charges", Fields: []string{"billingPeriodStart", "billingPeriodEnd", "dueDate", "usage", "baseCharge", "usageCharge", "taxes", "fees", "discountAmount", "previousBalance", "paymentReceived"}, Required: []string{"dueDate"}},
			{Name: "preview"},
		},
	},
	BankStatement: {
		Type:      BankStatement,
		Title:     "Bank Statement",
		Templates: []string{TemplateA, TemplateB},
		Steps: []Step{
			{Name: "bank", Fields: []string{"bankName", "bankAddress", "logoDataUri"}, Required: []string{"bankName"}},
			{Name: "account", Fields: []string{"accountHolder", "accountNumber", "holderAddress", "postalCode"}, Required: []string{"accountHolder", "accountNumber"}},
			{Name: "activity", Fields: []string{"statementStart", "statementEnd", "openingBalance", "transactions"}, Required: []string{"statementEnd", "openingBalance"}},
			{Name: "preview"},
		},
	},
	Resume: {
		Type:      Resume,
		Title:     "Resume",
		Templates: []string{TemplateA, TemplateB},
		Steps: []Step{
			{Name: "contact", Fields: []string{"fullName", "email", "phone", "location"}, Required: []string{"fullName", "email"}},
			{Name: "summary", Fields: []string{"summary", "skills"}},
			{Name: "experience", Fields: []string{"experience"}},
			{Name: "education", Fields: []string{"education"}},
			{Name: "preview"},
		},
	},
}

func init() {
	for t, def := range definitions {
		raw, err := schemaFS.ReadFile("schemas/" + string(t) + ".json")
		if err != nil {
			panic(fmt.Sprintf("documents: missing schema for %s: %v", t, err))
		}
		def.schema = string(raw)
	}
}

// Lookup returns the definition of docType.
func Lookup(docType string) (*Definition, error) {
	def, ok := definitions[DocumentType(docType)]
	if !ok {
		return nil, errors.NewTemplateNotFoundError(docType, "")
	}
	return def, nil
}

// Types lists the supported document types in a stable order.
func Types() []DocumentType {
	types := make([]DocumentType, 0, len(definitions))
	for t := range definitions {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (d *Definition) HasTemplate(templateID string) bool {
	for _, t := range d.Templates {
		if t == templateID {
			return true
		}
	}
	return false
}

// ResolveTemplate returns templateID when the definition has it, or the first
// template when templateID is empty.
func (d *Definition) ResolveTemplate(templateID string) (string, error) {
	if templateID == "" {
		return d.Templates[0], nil
	}
	if !d.HasTemplate(templateID) {
		return "", errors.NewTemplateNotFoundError(string(d.Type), templateID)
	}
	return templateID, nil
}

// RequiredFields is the union of every step's required fields.
func (d *Definition) RequiredFields() []string {
	var fields []string
	for _, s := range d.Steps {
		fields = append(fields, s.Required...)
	}
	return fields
}

// PreviewStep is the index of the last step.
func (d *Definition) PreviewStep() int {
	return len(d.Steps) - 1
}

// Validate checks data against the document type's schema.
func (d *Definition) Validate(data FormData) (*validation.ValidationResult, error) {
	doc := make(map[string]interface{}, len(data))
	for k, v := range data {
		doc[k] = v
	}
	return validation.ValidateDocument(d.schema, doc)
}

// Check validates data and turns a failed validation into
// FORM_VALIDATION_FAILED carrying the per-field errors.
func (d *Definition) Check(data FormData) error {
	result, err := d.Validate(data)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if result.Valid {
		return nil
	}
	fields := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		fields = append(fields, e.Field)
	}
	return errors.NewFormValidationFailedError(fmt.Sprintf("%s: invalid fields %v", d.Type, fields)).
		WithMetadata("fieldErrors", result.Errors)
}
