package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_HasActiveSubscription(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"nil user", nil, false},
		{"no subscription", &User{ID: "u1"}, false},
		{"active with quota", &User{Subscription: &Subscription{Status: SubscriptionActive, DownloadsRemaining: 3}}, true},
		{"active unlimited", &User{Subscription: &Subscription{Status: SubscriptionActive, DownloadsRemaining: UnlimitedDownloads}}, true},
		{"active exhausted", &User{Subscription: &Subscription{Status: SubscriptionActive, DownloadsRemaining: 0}}, false},
		{"active negative other than unlimited", &User{Subscription: &Subscription{Status: SubscriptionActive, DownloadsRemaining: -2}}, false},
		{"canceled with quota", &User{Subscription: &Subscription{Status: SubscriptionCanceled, DownloadsRemaining: 5}}, false},
		{"past due unlimited", &User{Subscription: &Subscription{Status: SubscriptionPastDue, DownloadsRemaining: -1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.HasActiveSubscription())
		})
	}
}

func TestUser_Tier(t *testing.T) {
	assert.Equal(t, "none", (&User{}).Tier())
	assert.Equal(t, "pro", (&User{Subscription: &Subscription{Tier: "pro"}}).Tier())
}

func TestCoupon_Usable(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Coupon{Active: true}).Usable(now))
	assert.True(t, (&Coupon{Active: true, ExpiresAt: &future}).Usable(now))
	assert.False(t, (&Coupon{Active: true, ExpiresAt: &past}).Usable(now))
	assert.False(t, (&Coupon{Active: false}).Usable(now))
	assert.False(t, (*Coupon)(nil).Usable(now))
}
