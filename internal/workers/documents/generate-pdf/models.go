// internal/workers/documents/generate-pdf/models.go
package generatepdf

import "mintslip-workers/internal/render"

// Input describes either a single document or, when Batch is set, a
// multi-document order packed into one ZIP.
type Input struct {
	FormSessionID    string             `json:"formSessionId"`
	UserID           string             `json:"userId"`
	DocumentType     string             `json:"documentType"`
	TemplateID       string             `json:"templateId"`
	FormData         map[string]string  `json:"formData"`
	PaymentReference string             `json:"paymentReference,omitempty"`
	Batch            []render.BatchItem `json:"batch,omitempty"`
}

type Output struct {
	DocumentID  string `json:"documentId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	DownloadURL string `json:"downloadUrl"`
}
