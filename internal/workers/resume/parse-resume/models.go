// internal/workers/resume/parse-resume/models.go
package parseresume

import "mintslip-workers/internal/models"

type Input struct {
	UserToken   string `json:"userToken"`
	FileName    string `json:"fileName"`
	FileContent string `json:"fileContent"` // base64
}

type Output struct {
	Resume   models.ParsedResume `json:"resume"`
	FormData map[string]string   `json:"formData"`
}
