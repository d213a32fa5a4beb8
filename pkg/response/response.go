package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/medpal-dev/medpal-api/pkg/errors"
)

// JSON sends a success response. Bodies are flat JSON: the data itself, no
// envelope, matching what API clients already consume.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error sends an error response as {"error": ..., "code": ...} with the
// status carried by the typed error.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Recovery converts panics into the generic 500 body without leaking detail.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, _ interface{}) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": appErrors.ErrInternal.Message,
			"code":  appErrors.ErrInternal.Code,
		})
	})
}
