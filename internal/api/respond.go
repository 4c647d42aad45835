package api

import (
	"github.com/gin-gonic/gin"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/models"
)

const sessionKey = "session"

type errorBody struct {
	Code    errors.ErrorCode       `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (s *Server) fail(c *gin.Context, err error) {
	stdErr := errors.Normalize(err)
	status := errors.HTTPStatus(stdErr.Code)
	if status >= 500 {
		s.log.Error("Request failed", map[string]interface{}{
			"path":      c.FullPath(),
			"errorCode": stdErr.Code,
			"error":     err.Error(),
		})
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{
		Code:    stdErr.Code,
		Message: stdErr.Message,
		Details: stdErr.Metadata,
	}})
}

func currentSession(c *gin.Context) *models.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*models.Session)
	return session
}

func currentUserID(c *gin.Context) string {
	if session := currentSession(c); session != nil {
		return session.User.ID
	}
	return ""
}
