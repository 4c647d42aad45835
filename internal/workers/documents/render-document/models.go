// internal/workers/documents/render-document/models.go
package renderdocument

type Input struct {
	DocumentType string            `json:"documentType"`
	TemplateID   string            `json:"templateId"`
	FormData     map[string]string `json:"formData"`
}

type Output struct {
	DocumentHTML string `json:"documentHtml"`
}
