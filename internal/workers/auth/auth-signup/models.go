// internal/workers/auth/auth-signup/models.go
package authsignup

import (
	"time"

	"mintslip-workers/internal/models"
)

type Input struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Output struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}
