// internal/workers/resume/generate-responsibilities/models.go
package generateresponsibilities

type Input struct {
	UserToken   string `json:"userToken"`
	JobTitle    string `json:"jobTitle"`
	Company     string `json:"company,omitempty"`
	Description string `json:"description,omitempty"`
}

type Output struct {
	Responsibilities []string `json:"responsibilities"`
}
