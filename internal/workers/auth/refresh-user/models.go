// internal/workers/auth/refresh-user/models.go
package refreshuser

import "mintslip-workers/internal/models"

type Input struct {
	Token string `json:"token"`
}

type Output struct {
	User                  models.User `json:"user"`
	HasActiveSubscription bool        `json:"hasActiveSubscription"`
	SubscriptionTier      string      `json:"subscriptionTier,omitempty"`
}
