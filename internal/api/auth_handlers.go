package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/models"
)

type sessionResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func toSessionResponse(s *models.Session) sessionResponse {
	return sessionResponse{Token: s.Token, User: s.User, ExpiresAt: s.ExpiresAt}
}

func (s *Server) login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		s.fail(c, errors.NewInputParsingFailedError(err))
		return
	}
	session, err := s.deps.Auth.Login(c.Request.Context(), creds)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (s *Server) signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewInputParsingFailedError(err))
		return
	}
	session, err := s.deps.Auth.Signup(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(session))
}

func (s *Server) logout(c *gin.Context) {
	token := bearerToken(c.Request)
	if token == "" {
		s.fail(c, errors.NewAuthenticationFailedError("missing bearer token"))
		return
	}
	deleted, err := s.deps.Auth.Logout(c.Request.Context(), token)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loggedOut": true, "sessionDeleted": deleted})
}

func (s *Server) me(c *gin.Context) {
	user, err := s.deps.Auth.RefreshUser(c.Request.Context(), bearerToken(c.Request))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":                  user,
		"hasActiveSubscription": user.HasActiveSubscription(),
	})
}
