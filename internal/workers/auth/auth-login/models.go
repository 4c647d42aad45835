// internal/workers/auth/auth-login/models.go
package authlogin

import (
	"time"

	"mintslip-workers/internal/models"
)

type Input struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Output struct {
	Token                 string      `json:"token"`
	User                  models.User `json:"user"`
	HasActiveSubscription bool        `json:"hasActiveSubscription"`
	ExpiresAt             time.Time   `json:"expiresAt"`
}
