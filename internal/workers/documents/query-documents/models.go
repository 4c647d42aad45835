// internal/workers/documents/query-documents/models.go
package querydocuments

import "mintslip-workers/internal/models"

type Input struct {
	QueryType    string `json:"queryType"`
	UserID       string `json:"userId"`
	DocumentType string `json:"documentType,omitempty"`
	Text         string `json:"text,omitempty"`
	From         int    `json:"from,omitempty"`
	Size         int    `json:"size,omitempty"`
}

type Output struct {
	Documents []models.GeneratedDocument `json:"documents"`
	Total     int64                      `json:"total"`
	Took      int64                      `json:"took"`
}
