// internal/workers/notifications/send-notification/templates.go
package sendnotification

import (
	"fmt"
	"strings"
)

type messageTemplate struct {
	Subject string
	Body    string
	SMS     string
}

var templates = map[string]messageTemplate{
	TypeDocumentReady: {
		Subject: "Your {{documentType}} is ready",
		Body: "Thanks for using {{product}}.\n\n" +
			"Your {{documentType}} ({{fileName}}) has been generated.\n" +
			"Download it here: {{downloadUrl}}\n",
		SMS: "{{product}}: your {{documentType}} is ready. {{downloadUrl}}",
	},
	TypePaymentReceipt: {
		Subject: "{{product}} receipt {{paymentReference}}",
		Body: "We received your payment of ${{amount}} for a {{documentType}}.\n" +
			"Reference: {{paymentReference}}\n" +
			"Download: {{downloadUrl}}\n",
		SMS: "{{product}}: payment of ${{amount}} received. Ref {{paymentReference}}",
	},
}

// renderTemplate fills {{key}} placeholders and drops any left without a value.
func renderTemplate(tmpl string, data map[string]string) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

func templateData(product string, input *Input) map[string]string {
	data := map[string]string{
		"product":      product,
		"documentType": strings.ReplaceAll(input.DocumentType, "-", " "),
		"fileName":     input.FileName,
		"downloadUrl":  input.DownloadURL,
	}
	if input.PaymentReference != "" {
		data["paymentReference"] = input.PaymentReference
	}
	if input.Amount > 0 {
		data["amount"] = fmt.Sprintf("%.2f", input.Amount)
	}
	return data
}
