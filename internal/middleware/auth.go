package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medpal-dev/medpal-api/internal/service"
	appErrors "github.com/medpal-dev/medpal-api/pkg/errors"
	"github.com/medpal-dev/medpal-api/pkg/response"
)

// ContextUserKey is the gin context key storing the resolved session.
const ContextUserKey = "currentUser"

// Auth protects routes by requiring a valid access token.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		session, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, session)
		c.Next()
	}
}

// OptionalAuth attaches the session when present but does not block. The OCR
// extract endpoint serves unauthenticated callers read-only.
func OptionalAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}

		session, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextUserKey, session)
		c.Next()
	}
}
