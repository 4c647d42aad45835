// internal/workers/forms/select-template/models.go
package selecttemplate

type Input struct {
	DocumentType string `json:"documentType"`
	TemplateID   string `json:"templateId,omitempty"`
}

type Output struct {
	TemplateID         string   `json:"templateId"`
	AvailableTemplates []string `json:"availableTemplates"`
	DefaultApplied     bool     `json:"defaultApplied"`
}
