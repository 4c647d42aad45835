// internal/workers/documents/save-document/models.go
package savedocument

type Input struct {
	UserToken    string            `json:"userToken"`
	DocumentType string            `json:"documentType"`
	TemplateID   string            `json:"templateId"`
	FileName     string            `json:"fileName"`
	DownloadURL  string            `json:"downloadUrl"`
	FormData     map[string]string `json:"formData"`
}

type Output struct {
	SavedDocumentID string `json:"savedDocumentId"`
}
