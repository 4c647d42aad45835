// internal/workers/notifications/send-notification/models.go
package sendnotification

type Input struct {
	UserEmail        string  `json:"userEmail"`
	UserPhone        string  `json:"userPhone,omitempty"`
	NotificationType string  `json:"notificationType,omitempty"`
	DocumentType     string  `json:"documentType"`
	FileName         string  `json:"fileName"`
	DownloadURL      string  `json:"downloadUrl"`
	DocumentHTML     string  `json:"documentHtml,omitempty"`
	PaymentReference string  `json:"paymentReference,omitempty"`
	Amount           float64 `json:"amount,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent" or "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeDocumentReady  = "document_ready"
	TypePaymentReceipt = "payment_receipt"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)
