package models

// SubscriptionStatus mirrors the backend's subscription lifecycle values.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// UnlimitedDownloads marks a tier without a download quota.
const UnlimitedDownloads = -1

// Subscription is the user's plan as reported by the backend.
type Subscription struct {
	Status             SubscriptionStatus `json:"status"`
	Tier               string             `json:"tier"`
	DownloadsRemaining int                `json:"downloads_remaining"`
}

// User is the snapshot of the authenticated user owned by the backend.
type User struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	Name         string        `json:"name,omitempty"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// HasActiveSubscription reports whether the user may download without paying.
func (u *User) HasActiveSubscription() bool {
	if u == nil || u.Subscription == nil {
		return false
	}
	return u.Subscription.HasQuota()
}

func (s *Subscription) HasQuota() bool {
	if s == nil || s.Status != SubscriptionActive {
		return false
	}
	return s.DownloadsRemaining > 0 || s.DownloadsRemaining == UnlimitedDownloads
}

// Tier returns the subscription tier, or "none" when the user has no plan.
func (u *User) Tier() string {
	if u == nil || u.Subscription == nil || u.Subscription.Tier == "" {
		return "none"
	}
	return u.Subscription.Tier
}
