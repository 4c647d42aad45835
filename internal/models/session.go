package models

import "time"

// Session is the server-side equivalent of the client's stored userToken and
// userInfo. It is keyed by the service token in Redis.
type Session struct {
	Token        string    `json:"token"`
	BackendToken string    `json:"backendToken"`
	User         User      `json:"user"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// IsExpired checks if session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// FormSession holds an in-progress form for one document.
type FormSession struct {
	ID           string            `json:"id"`
	UserID       string            `json:"userId,omitempty"`
	DocumentType string            `json:"documentType"`
	TemplateID   string            `json:"templateId"`
	Step         int               `json:"step"`
	Data         map[string]string `json:"data"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}
