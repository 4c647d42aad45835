// internal/workers/subscription/validate-subscription/models.go
package validatesubscription

type Input struct {
	UserID    string `json:"userId"`
	UserToken string `json:"userToken"`
}

// Output drives the pay-or-consume gateway. An inactive plan is not an error.
type Output struct {
	HasActiveSubscription bool   `json:"hasActiveSubscription"`
	SubscriptionStatus    string `json:"subscriptionStatus"`
	SubscriptionTier      string `json:"subscriptionTier"`
	DownloadsRemaining    int    `json:"downloadsRemaining"`
	FromCache             bool   `json:"-"`
}
