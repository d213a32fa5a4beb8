package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/medpal-dev/medpal-api/internal/middleware"
	"github.com/medpal-dev/medpal-api/internal/models"
)

func sessionFromContext(c *gin.Context) *models.UserSession {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	session, ok := value.(*models.UserSession)
	if !ok {
		return nil
	}
	return session
}

// ownerID returns the caller's user id, or "" when unauthenticated.
func ownerID(c *gin.Context) string {
	if session := sessionFromContext(c); session != nil {
		return session.UserID
	}
	return ""
}
