// internal/workers/forms/validate-form-data/models.go
package validateformdata

type Input struct {
	FormSessionID string            `json:"formSessionId"`
	DocumentType  string            `json:"documentType"`
	FormData      map[string]string `json:"formData"`
}

// Output replaces formData with its masked form.
type Output struct {
	FormValid  bool              `json:"formValid"`
	FormData   map[string]string `json:"formData"`
	FieldCount int               `json:"fieldCount"`
}
