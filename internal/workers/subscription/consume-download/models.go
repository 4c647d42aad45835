// internal/workers/subscription/consume-download/models.go
package consumedownload

type Input struct {
	FormSessionID    string `json:"formSessionId"`
	UserID           string `json:"userId"`
	UserToken        string `json:"userToken"`
	DocumentType     string `json:"documentType"`
	SubscriptionTier string `json:"subscriptionTier,omitempty"`
}

type Output struct {
	DownloadConsumed   bool `json:"downloadConsumed"`
	DownloadsRemaining int  `json:"downloadsRemaining"`
}
