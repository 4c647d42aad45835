// internal/workers/auth/auth-logout/models.go
package authlogout

import "time"

type Input struct {
	Token string `json:"token"`
}

type Output struct {
	LoggedOut      bool      `json:"loggedOut"`
	SessionDeleted bool      `json:"sessionDeleted"`
	LogoutAt       time.Time `json:"logoutAt"`
}
