package models

import "time"

// GeneratedDocument is the metadata of a delivered artifact. Content is only
// populated when the bytes are being stored or downloaded.
type GeneratedDocument struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"userId" db:"user_id"`
	DocumentType string    `json:"documentType" db:"document_type"`
	TemplateID   string    `json:"templateId" db:"template_id"`
	FileName     string    `json:"fileName" db:"file_name"`
	ContentType  string    `json:"contentType" db:"content_type"`
	SizeBytes    int64     `json:"sizeBytes" db:"size_bytes"`
	PaymentRef   string    `json:"paymentRef,omitempty" db:"payment_ref"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	Content      []byte    `json:"-" db:"content"`
}

const (
	ContentTypePDF = "application/pdf"
	ContentTypeZIP = "application/zip"
)
